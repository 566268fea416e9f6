package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, key := range []string{"SERVER_PORT", "PORT", "LOAN_PERIOD_DAYS", "GATEWAY_TIMEOUT_MS", "NOTIFICATION_EXCHANGE", "ALL_BORROWS_MAX_PAGE_SIZE"} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8084" {
		t.Fatalf("expected default port 8084, got %q", cfg.ServerPort)
	}
	if cfg.LoanPeriodDays != 14 {
		t.Fatalf("expected default loan period 14, got %d", cfg.LoanPeriodDays)
	}
	if cfg.GatewayTimeoutMs != 3000 {
		t.Fatalf("expected default gateway timeout 3000ms, got %d", cfg.GatewayTimeoutMs)
	}
	if cfg.NotificationExchange != "library.events" {
		t.Fatalf("expected default exchange library.events, got %q", cfg.NotificationExchange)
	}
	if cfg.AllBorrowsMaxPageSize != 200 {
		t.Fatalf("expected default max page size 200, got %d", cfg.AllBorrowsMaxPageSize)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8084")
	setEnvWithCleanup(t, "PORT", "9000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Fatalf("expected PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_NonPositiveLoanPeriodCoercedToDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "LOAN_PERIOD_DAYS", "-3")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LoanPeriodDays != 14 {
		t.Fatalf("expected coerced loan period 14, got %d", cfg.LoanPeriodDays)
	}
}

func TestLoadConfig_GatewayURLsComeFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CATALOG_SERVICE_URL", "http://catalog.internal:8081")
	setEnvWithCleanup(t, "DIRECTORY_SERVICE_URL", "http://directory.internal:8082")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CatalogServiceURL != "http://catalog.internal:8081" {
		t.Fatalf("unexpected catalog url %q", cfg.CatalogServiceURL)
	}
	if cfg.DirectoryServiceURL != "http://directory.internal:8082" {
		t.Fatalf("unexpected directory url %q", cfg.DirectoryServiceURL)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
