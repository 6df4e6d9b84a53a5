package config

import (
	"testing"
	"time"
)

func TestLoadRequiresMySQLDSN(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when MYSQL_DSN is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/settlement?parseTime=true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTP.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Payments.PendingTTL != 60*time.Minute {
		t.Errorf("default pending TTL = %v, want 60m", cfg.Payments.PendingTTL)
	}
	if cfg.Payments.JobBatchSize != 100 {
		t.Errorf("default batch size = %d, want 100", cfg.Payments.JobBatchSize)
	}
	if cfg.Stripe.SignatureToleranceSeconds != 300 {
		t.Errorf("default stripe tolerance = %d, want 300", cfg.Stripe.SignatureToleranceSeconds)
	}
	if cfg.MTN.TargetEnv != "sandbox" {
		t.Errorf("default mtn target env = %q, want sandbox", cfg.MTN.TargetEnv)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/settlement?parseTime=true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PAYMENTS_PENDING_TTL_MINUTES", "15")
	t.Setenv("STRIPE_HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("APP_ADMIN_API_KEY", "ops-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTP.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.HTTP.Port)
	}
	if cfg.Payments.PendingTTL != 15*time.Minute {
		t.Errorf("pending TTL = %v, want 15m", cfg.Payments.PendingTTL)
	}
	if cfg.Stripe.HTTPTimeout != 5*time.Second {
		t.Errorf("stripe timeout = %v, want 5s", cfg.Stripe.HTTPTimeout)
	}
	if cfg.App.AdminAPIKey != "ops-key" {
		t.Errorf("admin key = %q, want ops-key", cfg.App.AdminAPIKey)
	}
}
