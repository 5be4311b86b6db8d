package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/family-finance-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("expected 7 day session, got %s", cfg.SessionTTL)
	}
	if cfg.BudgetRolloverSchedule != "5 0 1 * *" {
		t.Errorf("unexpected schedule %q", cfg.BudgetRolloverSchedule)
	}
	if cfg.TracerEndpoint() != "" {
		t.Error("tracing should be disabled by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("TRACING_ENABLED", "1")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected 30s, got %s", cfg.CacheTTL)
	}
	if !cfg.CookieSecure {
		t.Error("expected secure cookies")
	}
	if cfg.TracerEndpoint() == "" {
		t.Error("expected tracer endpoint when tracing is enabled")
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.MaxRetries)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "WEBHOOK_SECRET=from-file\nLOG_LEVEL=\"debug\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOG_LEVEL", "warn")
	os.Unsetenv("WEBHOOK_SECRET")
	t.Cleanup(func() { os.Unsetenv("WEBHOOK_SECRET") })

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v := os.Getenv("WEBHOOK_SECRET"); v != "from-file" {
		t.Errorf("expected value from file, got %q", v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "warn" {
		t.Errorf("existing env must win, got %q", v)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
