package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-banklink/adapters/gocommand"
	"github.com/goliatone/go-banklink/adapters/gologger"
	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/identifier"
	"github.com/goliatone/go-banklink/providers/dwolla"
	"github.com/goliatone/go-banklink/providers/plaid"
	"github.com/goliatone/go-banklink/security"
	sqlstore "github.com/goliatone/go-banklink/store/sql"
	"github.com/goliatone/go-banklink/transport"
	gocmd "github.com/goliatone/go-command"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type app struct {
	config  AppConfig
	client  *persistence.Client
	service *core.Service
	bus     *gocommand.Bus
}

func openDatabase(ctx context.Context, cfg AppConfig) (*persistence.Client, error) {
	return sqlstore.Open(ctx, sqlstore.OpenConfig{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
		Debug:  cfg.DatabaseDebug,
	})
}

// newApp wires providers, storage and the command bus. Callers must close it.
func newApp(ctx context.Context, cfg AppConfig, rawService map[string]any) (*app, error) {
	if err := cfg.requireProviders(); err != nil {
		return nil, err
	}

	adapter := transport.NewRESTAdapter(&http.Client{Timeout: cfg.HTTPTimeout})

	plaidURL, err := plaid.BaseURLForEnvironment(cfg.PlaidEnv)
	if err != nil {
		return nil, err
	}
	aggregator, err := plaid.New(plaid.Config{
		BaseURL:  plaidURL,
		ClientID: cfg.PlaidClientID,
		Secret:   core.Secret(cfg.PlaidSecret),
		Webhook:  cfg.PlaidWebhook,
		Timeout:  cfg.HTTPTimeout,
	}, adapter)
	if err != nil {
		return nil, err
	}

	dwollaURL, err := dwolla.BaseURLForEnvironment(cfg.DwollaEnv)
	if err != nil {
		return nil, err
	}
	processor, err := dwolla.New(dwolla.Config{
		BaseURL: dwollaURL,
		Key:     cfg.DwollaKey,
		Secret:  core.Secret(cfg.DwollaSecret),
		Timeout: cfg.HTTPTimeout,
	}, adapter)
	if err != nil {
		return nil, err
	}

	secrets, err := security.NewAppKeySecretProviderFromString(cfg.AppKey, security.WithKeyID(cfg.AppKeyID))
	if err != nil {
		return nil, err
	}

	var cacheService repositorycache.CacheService
	if cfg.CacheTTL > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = cfg.CacheTTL
		cacheService, err = repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			return nil, fmt.Errorf("banklink: cache service: %w", err)
		}
	}

	client, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, secrets, cacheService)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	service, err := core.NewService(core.Config{},
		core.WithConfigProvider(core.NewCfgxConfigProvider(core.NewStaticRawConfigLoader(rawService))),
		core.WithAggregator(aggregator),
		core.WithPaymentProcessor(processor),
		core.WithIdentifierCodec(identifier.New()),
		core.WithBankAccountStore(factory.BankAccountStore()),
		core.WithBankAccountReader(factory.BankAccountReader()),
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	logger, _, _ := gologger.FromService(service.Dependencies())
	factory.SetLogger(logger)

	registry := gocommand.NewRegistryAdapter(gocmd.NewRegistry())
	bus, err := gocommand.Register(registry, service, service)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := registry.Initialize(); err != nil {
		bus.Close()
		_ = client.Close()
		return nil, err
	}

	return &app{
		config:  cfg,
		client:  client,
		service: service,
		bus:     bus,
	}, nil
}

func (a *app) Close() error {
	if a == nil {
		return nil
	}
	a.bus.Close()
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
