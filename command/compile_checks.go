package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[LinkAccountMessage]     = (*LinkAccountCommand)(nil)
	_ gocmd.Commander[CreateLinkTokenMessage] = (*CreateLinkTokenCommand)(nil)
)
