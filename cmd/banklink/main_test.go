package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	if root.Use != "banklink" {
		t.Fatalf("unexpected use %q", root.Use)
	}
	for _, name := range []string{"migrate", "link-token", "link", "accounts"} {
		sub, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if sub.Name() != name {
			t.Fatalf("expected %s, got %s", name, sub.Name())
		}
	}

	link, _, _ := root.Find([]string{"link"})
	for _, flag := range []string{"user-id", "public-token", "customer-url", "ssn"} {
		if link.Flags().Lookup(flag) == nil {
			t.Fatalf("expected link flag %q", flag)
		}
	}
}

func TestLoadAppConfig_DefaultsAndOverrides(t *testing.T) {
	cfg, rawService, err := LoadAppConfig([]string{
		"BANKLINK_DATABASE_DRIVER=postgres",
		"BANKLINK_DATABASE_DSN=postgres://localhost/banklink",
		"BANKLINK_CACHE_TTL=90s",
		"BANKLINK_PROCESSOR=dwolla",
		"BANKLINK_PUBLIC_TOKEN_TTL=10m",
		"PATH=/usr/bin",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseDSN != "postgres://localhost/banklink" {
		t.Fatalf("unexpected database config %+v", cfg)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected cache ttl override, got %s", cfg.CacheTTL)
	}
	if cfg.HTTPTimeout != DefaultAppConfig().HTTPTimeout {
		t.Fatalf("expected default http timeout, got %s", cfg.HTTPTimeout)
	}
	if len(rawService) != 2 || rawService["processor"] != "dwolla" || rawService["public_token_ttl"] != "10m" {
		t.Fatalf("unexpected service raw config %#v", rawService)
	}
}

func TestLoadAppConfig_RejectsBadDuration(t *testing.T) {
	if _, _, err := LoadAppConfig([]string{"BANKLINK_CACHE_TTL=soon"}); err == nil {
		t.Fatalf("expected invalid duration to fail")
	}
}

func TestAppConfig_RequireProvidersListsMissingKeys(t *testing.T) {
	err := DefaultAppConfig().requireProviders()
	if err == nil {
		t.Fatalf("expected missing provider config to fail")
	}
	for _, key := range []string{"BANKLINK_APP_KEY", "BANKLINK_PLAID_CLIENT_ID", "BANKLINK_DWOLLA_SECRET"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestMigrateCommand_SQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "banklink.db")
	root := newRootCommand(&RootOptions{Environ: []string{
		"BANKLINK_DATABASE_DRIVER=sqlite3",
		"BANKLINK_DATABASE_DSN=" + dsn,
	}})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "migrations applied (sqlite3)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestLinkCommand_RequiresProviderConfig(t *testing.T) {
	root := newRootCommand(&RootOptions{Environ: []string{"BANKLINK_DATABASE_DSN=file::memory:"}})
	root.SetArgs([]string{"link", "--user-id", "user-1", "--public-token", "public-sandbox"})
	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "BANKLINK_PLAID_SECRET") {
		t.Fatalf("expected missing provider config error, got %v", err)
	}
}

func TestAccountsCommand_RequiresExactlyOneSelector(t *testing.T) {
	root := newRootCommand(&RootOptions{Environ: []string{}})
	root.SetArgs([]string{"accounts"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected selector validation error")
	}
}
