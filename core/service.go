package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	aggregator        Aggregator
	paymentProcessor  PaymentProcessor
	linkTokenIssuer   LinkTokenIssuer
	identifierCodec   IdentifierCodec
	bankAccountStore  BankAccountStore
	bankAccountReader BankAccountReader
	publicTokenLedger PublicTokenLedger
	linkObservers     []LinkObserver
	clock             func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorMapper       ErrorMapper
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	Aggregator        Aggregator
	PaymentProcessor  PaymentProcessor
	LinkTokenIssuer   LinkTokenIssuer
	IdentifierCodec   IdentifierCodec
	BankAccountStore  BankAccountStore
	BankAccountReader BankAccountReader
	PublicTokenLedger PublicTokenLedger
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(DefaultServiceName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(DefaultServiceName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.publicTokenLedger == nil {
		builder.publicTokenLedger = NewMemoryPublicTokenLedger(finalConfig.PublicTokenTTL)
	}
	if builder.linkTokenIssuer == nil {
		if issuer, ok := builder.aggregator.(LinkTokenIssuer); ok {
			builder.linkTokenIssuer = issuer
		}
	}
	if builder.bankAccountReader == nil {
		if reader, ok := builder.bankAccountStore.(BankAccountReader); ok {
			builder.bankAccountReader = reader
		}
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorMapper:       builder.errorMapper,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		aggregator:        builder.aggregator,
		paymentProcessor:  builder.paymentProcessor,
		linkTokenIssuer:   builder.linkTokenIssuer,
		identifierCodec:   builder.identifierCodec,
		bankAccountStore:  builder.bankAccountStore,
		bankAccountReader: builder.bankAccountReader,
		publicTokenLedger: builder.publicTokenLedger,
		linkObservers:     append([]LinkObserver(nil), builder.linkObservers...),
		clock:             builder.clock,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// MapError converts any service failure into the go-errors envelope used at
// transport boundaries.
func MapError(err error) *goerrors.Error {
	return defaultErrorMapper(err)
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorMapper:       s.errorMapper,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		Aggregator:        s.aggregator,
		PaymentProcessor:  s.paymentProcessor,
		LinkTokenIssuer:   s.linkTokenIssuer,
		IdentifierCodec:   s.identifierCodec,
		BankAccountStore:  s.bankAccountStore,
		BankAccountReader: s.bankAccountReader,
		PublicTokenLedger: s.publicTokenLedger,
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) now() time.Time {
	if s != nil && s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) requireLinkDependencies() error {
	if s == nil {
		return fmt.Errorf("%w: service", ErrServiceNotConfigured)
	}
	switch {
	case s.aggregator == nil:
		return fmt.Errorf("%w: aggregator", ErrServiceNotConfigured)
	case s.paymentProcessor == nil:
		return fmt.Errorf("%w: payment processor", ErrServiceNotConfigured)
	case s.identifierCodec == nil:
		return fmt.Errorf("%w: identifier codec", ErrServiceNotConfigured)
	case s.bankAccountStore == nil:
		return fmt.Errorf("%w: bank account store", ErrServiceNotConfigured)
	case s.publicTokenLedger == nil:
		return fmt.Errorf("%w: public token ledger", ErrServiceNotConfigured)
	}
	return nil
}
