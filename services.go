package banklink

import "github.com/goliatone/go-banklink/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type UserIdentity = core.UserIdentity
type LinkCompletion = core.LinkCompletion
type LinkToken = core.LinkToken
type LinkedAccountView = core.LinkedAccountView
type LinkError = core.LinkError
type LinkStage = core.LinkStage
type LinkTransition = core.LinkTransition
type Secret = core.Secret

type Aggregator = core.Aggregator
type PaymentProcessor = core.PaymentProcessor
type IdentifierCodec = core.IdentifierCodec
type BankAccountStore = core.BankAccountStore
type BankAccountReader = core.BankAccountReader
type PublicTokenLedger = core.PublicTokenLedger

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithAggregator        = core.WithAggregator
	WithPaymentProcessor  = core.WithPaymentProcessor
	WithLinkTokenIssuer   = core.WithLinkTokenIssuer
	WithIdentifierCodec   = core.WithIdentifierCodec
	WithBankAccountStore  = core.WithBankAccountStore
	WithBankAccountReader = core.WithBankAccountReader
	WithPublicTokenLedger = core.WithPublicTokenLedger
	WithLinkObserver      = core.WithLinkObserver
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
