package query

import (
	"github.com/goliatone/go-banklink/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[ListLinkedAccountsMessage, []core.LinkedAccountView] = (*ListLinkedAccountsQuery)(nil)
	_ gocmd.Querier[GetLinkedAccountMessage, core.LinkedAccountView]     = (*GetLinkedAccountQuery)(nil)
)
