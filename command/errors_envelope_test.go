package command

import (
	"context"
	"testing"

	"github.com/goliatone/go-banklink/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestLinkAccountMessage_ValidateReturnsRichError(t *testing.T) {
	cases := []struct {
		name  string
		msg   LinkAccountMessage
		field string
	}{
		{"missing user", LinkAccountMessage{PublicToken: "public-1"}, "user.id"},
		{"missing token", LinkAccountMessage{User: core.UserIdentity{ID: "usr_1"}}, "public_token"},
		{
			"half customer reference",
			LinkAccountMessage{User: core.UserIdentity{ID: "usr_1", PaymentCustomerID: "cus_1"}, PublicToken: "public-1"},
			"user.payment_customer_url",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.Category != goerrors.CategoryValidation {
				t.Fatalf("expected validation category, got %q", rich.Category)
			}
			if rich.TextCode != core.ServiceErrorBadInput {
				t.Fatalf("expected %q text code, got %q", core.ServiceErrorBadInput, rich.TextCode)
			}
			if len(rich.ValidationErrors) != 1 || rich.ValidationErrors[0].Field != tc.field {
				t.Fatalf("expected field %q, got %#v", tc.field, rich.ValidationErrors)
			}
		})
	}
}

func TestCreateLinkTokenMessage_Validate(t *testing.T) {
	if err := (CreateLinkTokenMessage{User: core.UserIdentity{ID: "usr_1"}}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := (CreateLinkTokenMessage{}).Validate(); err == nil {
		t.Fatalf("expected missing user id to fail")
	}
}

func TestLinkAccountCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *LinkAccountCommand
	err := cmd.Execute(context.Background(), LinkAccountMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
