package command

import (
	"errors"
	"strings"

	"github.com/goliatone/go-banklink/core"
)

const (
	TypeLinkAccount     = "banklink.command.account.link"
	TypeCreateLinkToken = "banklink.command.link_token.create"
)

type LinkAccountMessage struct {
	User        core.UserIdentity
	PublicToken string
}

func (LinkAccountMessage) Type() string { return TypeLinkAccount }

func (m LinkAccountMessage) Validate() error {
	if err := validateUser(m.User); err != nil {
		return err
	}
	if strings.TrimSpace(m.PublicToken) == "" {
		return commandValidationError("public_token", "public token is required")
	}
	return nil
}

type CreateLinkTokenMessage struct {
	User core.UserIdentity
}

func (CreateLinkTokenMessage) Type() string { return TypeCreateLinkToken }

func (m CreateLinkTokenMessage) Validate() error {
	return validateUser(m.User)
}

func validateUser(user core.UserIdentity) error {
	err := user.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrUserIDRequired):
		return commandValidationError("user.id", "user id is required")
	case errors.Is(err, core.ErrInconsistentCustomerRef):
		return commandValidationError("user.payment_customer_url", "payment customer id and url must be set together")
	default:
		return commandWrapValidation(err, "command: invalid user")
	}
}
