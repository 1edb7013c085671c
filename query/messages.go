package query

import "strings"

const (
	TypeListLinkedAccounts = "banklink.query.accounts.list"
	TypeGetLinkedAccount   = "banklink.query.account.get"
)

type ListLinkedAccountsMessage struct {
	UserID string
}

func (ListLinkedAccountsMessage) Type() string { return TypeListLinkedAccounts }

func (m ListLinkedAccountsMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	return nil
}

type GetLinkedAccountMessage struct {
	SharableID string
}

func (GetLinkedAccountMessage) Type() string { return TypeGetLinkedAccount }

func (m GetLinkedAccountMessage) Validate() error {
	if strings.TrimSpace(m.SharableID) == "" {
		return queryValidationError("sharable_id", "sharable id is required")
	}
	return nil
}
