package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "FREE_TRANSFER_LIMIT")
	unsetEnvWithCleanup(t, "INR_PER_USD")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default SERVER_PORT 8080, got %q", cfg.ServerPort)
	}
	if cfg.FreeTransferLimit != 5 {
		t.Fatalf("expected default FREE_TRANSFER_LIMIT 5, got %d", cfg.FreeTransferLimit)
	}
	if cfg.INRPerUSD != 83.33 {
		t.Fatalf("expected default INR_PER_USD 83.33, got %f", cfg.INRPerUSD)
	}
	if cfg.InvoiceThresholdUSDCents != 5700 {
		t.Fatalf("expected default INVOICE_THRESHOLD_USD_CENTS 5700, got %d", cfg.InvoiceThresholdUSDCents)
	}
	if cfg.InvoiceThresholdINRPaise != 500000 {
		t.Fatalf("expected default INVOICE_THRESHOLD_INR_PAISE 500000, got %d", cfg.InvoiceThresholdINRPaise)
	}
	if cfg.ReconcileCronSpec != "@every 5m" {
		t.Fatalf("expected default RECONCILE_CRON_SPEC, got %q", cfg.ReconcileCronSpec)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	unsetEnvWithCleanup(t, "PORT")
	setEnvWithCleanup(t, "FREE_TRANSFER_LIMIT", "3")
	setEnvWithCleanup(t, "OPENING_BALANCE_CENTS", "25000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected SERVER_PORT override, got %q", cfg.ServerPort)
	}
	if cfg.FreeTransferLimit != 3 {
		t.Fatalf("expected FREE_TRANSFER_LIMIT override, got %d", cfg.FreeTransferLimit)
	}
	if cfg.OpeningBalanceCents != 25000 {
		t.Fatalf("expected OPENING_BALANCE_CENTS override, got %d", cfg.OpeningBalanceCents)
	}
}

func TestLoadConfig_PortTakesPrecedenceOverServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "PORT", "7070")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Fatalf("expected PORT to win over SERVER_PORT, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_SanitizesBadValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "INR_PER_USD", "-1")
	setEnvWithCleanup(t, "FREE_TRANSFER_LIMIT", "0")
	setEnvWithCleanup(t, "TRANSFER_RATE_LIMIT_PER_MINUTE", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.INRPerUSD != 83.33 {
		t.Fatalf("expected INR_PER_USD to fall back to 83.33, got %f", cfg.INRPerUSD)
	}
	if cfg.FreeTransferLimit != 5 {
		t.Fatalf("expected FREE_TRANSFER_LIMIT to fall back to 5, got %d", cfg.FreeTransferLimit)
	}
	if cfg.TransferRateLimitPerMinute != 0 {
		t.Fatalf("expected negative rate limit to clamp to 0, got %d", cfg.TransferRateLimitPerMinute)
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
		}
	})
}
