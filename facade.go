package banklink

import (
	"fmt"

	banklinkcommand "github.com/goliatone/go-banklink/command"
	"github.com/goliatone/go-banklink/core"
	banklinkquery "github.com/goliatone/go-banklink/query"
)

// CommandQueryService is what the facade needs from a linking service.
// *core.Service satisfies it.
type CommandQueryService interface {
	core.LinkingService
	core.LinkedAccountQueries
}

type Commands struct {
	LinkAccount     *banklinkcommand.LinkAccountCommand
	CreateLinkToken *banklinkcommand.CreateLinkTokenCommand
}

type Queries struct {
	ListLinkedAccounts *banklinkquery.ListLinkedAccountsQuery
	GetLinkedAccount   *banklinkquery.GetLinkedAccountQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("banklink: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			LinkAccount:     banklinkcommand.NewLinkAccountCommand(service),
			CreateLinkToken: banklinkcommand.NewCreateLinkTokenCommand(service),
		},
		queries: Queries{
			ListLinkedAccounts: banklinkquery.NewListLinkedAccountsQuery(service),
			GetLinkedAccount:   banklinkquery.NewGetLinkedAccountQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
