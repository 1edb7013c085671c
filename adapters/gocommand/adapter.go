package gocommand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	banklinkcommand "github.com/goliatone/go-banklink/command"
	"github.com/goliatone/go-banklink/core"
	banklinkquery "github.com/goliatone/go-banklink/query"
	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(gocmd.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *gocmd.Registry
}

func NewRegistryAdapter(registry *gocmd.Registry) *RegistryAdapter {
	if registry == nil {
		registry = gocmd.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry
// so link commands can also run as background jobs.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func registerAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd gocmd.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func registerAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry gocmd.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Bus holds the dispatcher subscriptions for the banklink commands and
// queries. Close releases them.
type Bus struct {
	subscriptions []commanddispatcher.Subscription
}

// Register subscribes LinkAccount, CreateLinkToken, ListLinkedAccounts and
// GetLinkedAccount on the go-command dispatcher. Partial registrations are
// rolled back on failure.
func Register(
	adapter *RegistryAdapter,
	linking core.LinkingService,
	queries core.LinkedAccountQueries,
	runnerOpts ...runner.Option,
) (*Bus, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if linking == nil || queries == nil {
		return nil, fmt.Errorf("gocommand: linking service and queries are required")
	}

	bus := &Bus{}
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return registerAndSubscribe(adapter, banklinkcommand.NewLinkAccountCommand(linking), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return registerAndSubscribe(adapter, banklinkcommand.NewCreateLinkTokenCommand(linking), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return registerAndSubscribeQuery(adapter, banklinkquery.NewListLinkedAccountsQuery(queries), runnerOpts...)
		},
		func() (commanddispatcher.Subscription, error) {
			return registerAndSubscribeQuery(adapter, banklinkquery.NewGetLinkedAccountQuery(queries), runnerOpts...)
		},
	}
	for _, step := range steps {
		subscription, err := step()
		if err != nil {
			bus.Close()
			return nil, err
		}
		bus.subscriptions = append(bus.subscriptions, subscription)
	}
	return bus, nil
}

func (b *Bus) Close() {
	if b == nil {
		return
	}
	for _, subscription := range b.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

// LinkAccount dispatches the command and returns the completion the handler
// stored on the context.
func LinkAccount(ctx context.Context, msg banklinkcommand.LinkAccountMessage) (core.LinkCompletion, error) {
	return dispatchWithResult[banklinkcommand.LinkAccountMessage, core.LinkCompletion](ctx, msg)
}

func CreateLinkToken(ctx context.Context, msg banklinkcommand.CreateLinkTokenMessage) (core.LinkToken, error) {
	return dispatchWithResult[banklinkcommand.CreateLinkTokenMessage, core.LinkToken](ctx, msg)
}

func ListLinkedAccounts(ctx context.Context, msg banklinkquery.ListLinkedAccountsMessage) ([]core.LinkedAccountView, error) {
	return commanddispatcher.Query[banklinkquery.ListLinkedAccountsMessage, []core.LinkedAccountView](ctx, msg)
}

func GetLinkedAccount(ctx context.Context, msg banklinkquery.GetLinkedAccountMessage) (core.LinkedAccountView, error) {
	return commanddispatcher.Query[banklinkquery.GetLinkedAccountMessage, core.LinkedAccountView](ctx, msg)
}

var errNoResult = errors.New("gocommand: handler stored no result")

func dispatchWithResult[T any, R any](ctx context.Context, msg T) (R, error) {
	var zero R
	collector := gocmd.NewResult[R]()
	if err := commanddispatcher.Dispatch(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	result, ok := collector.Load()
	if !ok {
		return zero, errNoResult
	}
	return result, nil
}
