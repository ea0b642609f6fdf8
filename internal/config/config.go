// Package config handles the XDG configuration directory and settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"widgetsync/internal/store"
)

const (
	// AppName is the application directory name.
	AppName = "widgetsync"

	// SettingsFile is the optional settings filename inside the config directory.
	SettingsFile = "config.yaml"

	// StoreFile is the default SQLite store filename.
	StoreFile = "shared.db"

	// EnvPrefix prefixes environment overrides, e.g. WIDGETSYNC_STORE_DRIVER.
	EnvPrefix = "WIDGETSYNC"

	// DefaultAPITimeout bounds each request to the backend.
	DefaultAPITimeout = 5 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Store selects the shared key-value store.
	Store store.Options

	// APITimeout bounds each HTTP request.
	APITimeout time.Duration
}

// New creates a new Config with the default or specified config directory,
// then applies config.yaml from that directory and WIDGETSYNC_* overrides.
// If configDir is empty, uses XDG_CONFIG_HOME/widgetsync or $HOME/.config/widgetsync.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.path", filepath.Join(dir, StoreFile))
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.prefix", AppName+":")
	v.SetDefault("api_timeout", DefaultAPITimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, SettingsFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	}

	timeout := v.GetDuration("api_timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid api_timeout: %s", v.GetString("api_timeout"))
	}

	return &Config{
		Dir: dir,
		Store: store.Options{
			Driver:    v.GetString("store.driver"),
			Path:      v.GetString("store.path"),
			RedisAddr: v.GetString("store.redis_addr"),
			Prefix:    v.GetString("store.prefix"),
		},
		APITimeout: timeout,
	}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
