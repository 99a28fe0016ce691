package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.StorageDriver != config.StoragePostgres {
		t.Fatalf("expected postgres storage by default, got %s", cfg.StorageDriver)
	}

	if cfg.RedisURL != "" {
		t.Fatalf("expected redis to be disabled by default, got %q", cfg.RedisURL)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if !cfg.AutoMigrate || !cfg.OutboxEnabled {
		t.Fatalf("expected migrations and outbox to be enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("TIMEZONE", "Asia/Colombo")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("REPORT_CACHE_TTL", "5m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StorageDriver != config.StorageMemory {
		t.Fatalf("expected memory storage, got %s", cfg.StorageDriver)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}

	if cfg.ReportCacheTTL != 5*time.Minute {
		t.Fatalf("expected report cache ttl override, got %s", cfg.ReportCacheTTL)
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Colombo" {
		t.Fatalf("expected Asia/Colombo, got %v (%v)", loc, err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected unknown storage driver to fail")
	}

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected unknown timezone to fail")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("RATE_LIMIT_BURST=7\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Cleanup(func() { os.Unsetenv("RATE_LIMIT_BURST") })

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RateLimitBurst != 7 {
		t.Fatalf("expected burst from env file, got %d", cfg.RateLimitBurst)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected explicit missing env file to fail")
	}
}

func TestLoadPayrollPolicy(t *testing.T) {
	policy, err := config.LoadPayrollPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !policy.EPFRate.Equal(decimal.RequireFromString("0.08")) || !policy.ETFRate.Equal(decimal.RequireFromString("0.03")) {
		t.Fatalf("expected default rates, got %+v", policy)
	}

	path := filepath.Join(t.TempDir(), "payroll.yaml")
	if err := os.WriteFile(path, []byte("epf_rate: \"0.10\"\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	policy, err = config.LoadPayrollPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !policy.EPFRate.Equal(decimal.RequireFromString("0.10")) || !policy.ETFRate.Equal(decimal.RequireFromString("0.03")) {
		t.Fatalf("expected overridden epf and default etf, got %+v", policy)
	}
}

func TestParsePayrollPolicyRejectsBadRates(t *testing.T) {
	if _, err := config.ParsePayrollPolicy([]byte("etf_rate: \"1.5\"\n")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := config.ParsePayrollPolicy([]byte("epf_rate: \"abc\"\n")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := config.ParsePayrollPolicy([]byte("epf_rate: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}
