package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"widgetsync/internal/config"
	"widgetsync/internal/store"
)

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.Store.Driver != store.DriverSQLite {
		t.Errorf("expected driver %q, got %q", store.DriverSQLite, cfg.Store.Driver)
	}
	if want := filepath.Join(dir, "shared.db"); cfg.Store.Path != want {
		t.Errorf("expected store path %q, got %q", want, cfg.Store.Path)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.APITimeout)
	}
}

func TestNew_SettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := "store:\n  driver: redis\n  redis_addr: cache:6380\n  prefix: \"w:\"\napi_timeout: 2s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(settings), 0600); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Driver != "redis" {
		t.Errorf("expected driver redis, got %q", cfg.Store.Driver)
	}
	if cfg.Store.RedisAddr != "cache:6380" {
		t.Errorf("expected redis addr cache:6380, got %q", cfg.Store.RedisAddr)
	}
	if cfg.Store.Prefix != "w:" {
		t.Errorf("expected prefix w:, got %q", cfg.Store.Prefix)
	}
	if cfg.APITimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %s", cfg.APITimeout)
	}
}

func TestNew_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  driver: redis\n"), 0600); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}
	t.Setenv("WIDGETSYNC_STORE_DRIVER", "memory")

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected env to override file, got %q", cfg.Store.Driver)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}

	if _, err := config.New(dir); err == nil {
		t.Error("expected error for malformed config.yaml")
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if got := config.DefaultConfigDir(); got != "/tmp/xdg/widgetsync" {
		t.Errorf("expected /tmp/xdg/widgetsync, got %q", got)
	}
}
