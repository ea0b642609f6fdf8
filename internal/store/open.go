package store

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a KV backend.
type Options struct {
	Driver string

	// Path is the SQLite database file.
	Path string

	// RedisAddr and Prefix configure the Redis backend.
	RedisAddr string
	Prefix    string
}

// Open returns the KV backend named by opts.Driver. An empty driver means SQLite.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("store path required for driver %q", DriverSQLite)
		}
		return OpenSQLite(opts.Path)
	case DriverRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis address required for driver %q", DriverRedis)
		}
		return DialRedis(ctx, opts.RedisAddr, opts.Prefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", opts.Driver)
	}
}
