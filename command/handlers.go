package command

import (
	"context"

	"github.com/goliatone/go-banklink/core"
	gocmd "github.com/goliatone/go-command"
)

type LinkAccountCommand struct {
	service core.LinkingService
}

func NewLinkAccountCommand(service core.LinkingService) *LinkAccountCommand {
	return &LinkAccountCommand{service: service}
}

// Execute runs the link workflow. The completion is stored on the context
// result collector when one is present.
func (c *LinkAccountCommand) Execute(ctx context.Context, msg LinkAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: linking service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.LinkAccount(ctx, msg.User, msg.PublicToken)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateLinkTokenCommand struct {
	service core.LinkingService
}

func NewCreateLinkTokenCommand(service core.LinkingService) *CreateLinkTokenCommand {
	return &CreateLinkTokenCommand{service: service}
}

func (c *CreateLinkTokenCommand) Execute(ctx context.Context, msg CreateLinkTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: link token service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.CreateLinkToken(ctx, msg.User)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
