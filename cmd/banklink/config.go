package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

const envPrefix = "BANKLINK_"

// AppConfig is the process-level configuration read from BANKLINK_* env vars.
type AppConfig struct {
	DatabaseDriver string        `koanf:"database_driver" mapstructure:"database_driver"`
	DatabaseDSN    string        `koanf:"database_dsn" mapstructure:"database_dsn"`
	DatabaseDebug  bool          `koanf:"database_debug" mapstructure:"database_debug"`
	AppKey         string        `koanf:"app_key" mapstructure:"app_key"`
	AppKeyID       string        `koanf:"app_key_id" mapstructure:"app_key_id"`
	CacheTTL       time.Duration `koanf:"cache_ttl" mapstructure:"cache_ttl"`
	PlaidEnv       string        `koanf:"plaid_env" mapstructure:"plaid_env"`
	PlaidClientID  string        `koanf:"plaid_client_id" mapstructure:"plaid_client_id"`
	PlaidSecret    string        `koanf:"plaid_secret" mapstructure:"plaid_secret"`
	PlaidWebhook   string        `koanf:"plaid_webhook" mapstructure:"plaid_webhook"`
	DwollaEnv      string        `koanf:"dwolla_env" mapstructure:"dwolla_env"`
	DwollaKey      string        `koanf:"dwolla_key" mapstructure:"dwolla_key"`
	DwollaSecret   string        `koanf:"dwolla_secret" mapstructure:"dwolla_secret"`
	HTTPTimeout    time.Duration `koanf:"http_timeout" mapstructure:"http_timeout"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		DatabaseDriver: "sqlite3",
		DatabaseDSN:    "file:banklink.db?cache=shared",
		AppKeyID:       "banklink",
		CacheTTL:       5 * time.Minute,
		PlaidEnv:       "sandbox",
		DwollaEnv:      "sandbox",
		HTTPTimeout:    30 * time.Second,
	}
}

func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.DatabaseDriver) == "" {
		return fmt.Errorf("banklink: database_driver is required")
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("banklink: database_dsn is required")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("banklink: cache_ttl must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("banklink: http_timeout must be positive")
	}
	return nil
}

// requireProviders is checked only by commands that reach Plaid or Dwolla.
func (c AppConfig) requireProviders() error {
	var missing []string
	if strings.TrimSpace(c.AppKey) == "" {
		missing = append(missing, envPrefix+"APP_KEY")
	}
	if strings.TrimSpace(c.PlaidClientID) == "" {
		missing = append(missing, envPrefix+"PLAID_CLIENT_ID")
	}
	if strings.TrimSpace(c.PlaidSecret) == "" {
		missing = append(missing, envPrefix+"PLAID_SECRET")
	}
	if strings.TrimSpace(c.DwollaKey) == "" {
		missing = append(missing, envPrefix+"DWOLLA_KEY")
	}
	if strings.TrimSpace(c.DwollaSecret) == "" {
		missing = append(missing, envPrefix+"DWOLLA_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("banklink: missing configuration %s", strings.Join(missing, ", "))
	}
	return nil
}

// rawEnv collects BANKLINK_* variables keyed by their lowercased suffix.
func rawEnv(environ []string) map[string]any {
	raw := map[string]any{}
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if name == "" {
			continue
		}
		raw[name] = strings.TrimSpace(value)
	}
	return raw
}

func LoadAppConfig(environ []string) (AppConfig, map[string]any, error) {
	if environ == nil {
		environ = os.Environ()
	}
	raw := rawEnv(environ)
	appRaw := map[string]any{}
	for key, value := range raw {
		if _, ok := serviceKeys[key]; ok {
			continue
		}
		appRaw[key] = value
	}
	for _, key := range []string{"cache_ttl", "http_timeout"} {
		text, ok := appRaw[key].(string)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(text)
		if err != nil {
			return AppConfig{}, nil, fmt.Errorf("banklink: %s: %w", key, err)
		}
		appRaw[key] = parsed
	}
	if text, ok := appRaw["database_debug"].(string); ok {
		appRaw["database_debug"] = text == "1" || strings.EqualFold(text, "true")
	}

	cfg, err := cfgx.Build[AppConfig](appRaw,
		cfgx.WithDefaults(DefaultAppConfig()),
		cfgx.WithValidator[AppConfig]((*AppConfig).Validate),
	)
	if err != nil {
		return AppConfig{}, nil, err
	}
	return cfg, serviceRaw(raw), nil
}

var serviceKeys = map[string]struct{}{
	"service_name":     {},
	"processor":        {},
	"customer_type":    {},
	"public_token_ttl": {},
}

// serviceRaw keeps only the keys core.Config understands.
func serviceRaw(raw map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range raw {
		if _, ok := serviceKeys[key]; ok {
			out[key] = value
		}
	}
	return out
}
