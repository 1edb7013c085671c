package core

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.LoggerProvider == nil {
		t.Fatalf("expected default logger provider")
	}
	if deps.ErrorMapper == nil {
		t.Fatalf("expected default error mapper")
	}
	if deps.ConfigProvider == nil || deps.OptionsResolver == nil {
		t.Fatalf("expected default config provider and options resolver")
	}
	if deps.PublicTokenLedger == nil {
		t.Fatalf("expected default public token ledger")
	}
	cfg := svc.Config()
	if cfg.ServiceName != DefaultServiceName {
		t.Fatalf("expected default service_name=%s, got %q", DefaultServiceName, cfg.ServiceName)
	}
	if cfg.Processor != DefaultProcessor || cfg.CustomerType != DefaultCustomerType {
		t.Fatalf("unexpected processor defaults %#v", cfg)
	}
	if cfg.PublicTokenTTL != DefaultPublicTokenTTL {
		t.Fatalf("expected default ttl %s, got %s", DefaultPublicTokenTTL, cfg.PublicTokenTTL)
	}
}

func TestNewService_WithXOverrides(t *testing.T) {
	customLogger := stubLogger{}
	customProvider := stubLoggerProvider{logger: customLogger}
	sentinel := errors.New("sentinel")
	customMapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	configProvider := &fixedConfigProvider{cfg: Config{ServiceName: "from-provider"}}
	optionsResolver := &fixedOptionsResolver{cfg: Config{
		ServiceName:    "resolved",
		Processor:      "dwolla",
		CustomerType:   "business",
		PublicTokenTTL: time.Minute,
	}}
	aggregator := newFakeAggregator()
	store := NewMemoryBankAccountStore()
	ledger := NewMemoryPublicTokenLedger(time.Minute)

	svc, err := NewService(Config{ServiceName: "runtime"},
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithErrorMapper(customMapper),
		WithConfigProvider(configProvider),
		WithOptionsResolver(optionsResolver),
		WithAggregator(aggregator),
		WithBankAccountStore(store),
		WithPublicTokenLedger(ledger),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	deps := svc.Dependencies()
	if deps.Logger != customLogger {
		t.Fatalf("expected custom logger override")
	}
	if resolved := deps.LoggerProvider.GetLogger("banklink.override"); resolved != customLogger {
		t.Fatalf("expected logger provider to resolve custom logger")
	}
	if deps.ConfigProvider != configProvider || deps.OptionsResolver != optionsResolver {
		t.Fatalf("expected config provider and options resolver overrides")
	}
	if deps.PublicTokenLedger != ledger {
		t.Fatalf("expected custom ledger override")
	}
	if deps.LinkTokenIssuer != aggregator {
		t.Fatalf("expected aggregator to double as link token issuer")
	}
	if deps.BankAccountReader != store {
		t.Fatalf("expected memory store to double as reader")
	}
	if got := svc.Config().CustomerType; got != "business" {
		t.Fatalf("expected options resolver output config, got %q", got)
	}
}

func TestNewService_ConfigLayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"service_name":     "from-config",
		"customer_type":    "business",
		"public_token_ttl": "10m",
	}})

	svc, err := NewService(Config{ServiceName: "from-runtime"}, WithConfigProvider(provider))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := svc.Config()
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime value to override config/default, got %q", cfg.ServiceName)
	}
	if cfg.CustomerType != "business" {
		t.Fatalf("expected config layer customer_type, got %q", cfg.CustomerType)
	}
	if cfg.PublicTokenTTL != 10*time.Minute {
		t.Fatalf("expected config layer ttl, got %s", cfg.PublicTokenTTL)
	}
	if cfg.Processor != DefaultProcessor {
		t.Fatalf("expected default processor, got %q", cfg.Processor)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate: %v", err)
	}
	cfg := DefaultConfig()
	cfg.PublicTokenTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected zero ttl to fail validation")
	}
	cfg = DefaultConfig()
	cfg.Processor = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected empty processor to fail validation")
	}
}
