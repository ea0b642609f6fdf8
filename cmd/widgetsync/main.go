// Package main is the entry point for the widgetsync CLI.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"widgetsync/internal/backend/postgrest"
	"widgetsync/internal/cli"
	"widgetsync/internal/commands"
	"widgetsync/internal/config"
	"widgetsync/internal/store"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create dispatcher
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, openEnv)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// openEnv opens the configured store and wires the backend client over it.
func openEnv(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if cfg.Store.Driver == "" || cfg.Store.Driver == store.DriverSQLite {
		if err := cfg.EnsureDir(); err != nil {
			return nil, err
		}
	}
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "driver", cfg.Store.Driver, "dir", cfg.Dir)

	creds := store.NewCredentials(kv)
	client := postgrest.NewWithHTTPClient(&http.Client{Timeout: cfg.APITimeout}, creds, logger)

	return commands.NewEnv(commands.EnvDeps{
		KV:          kv,
		Credentials: creds,
		Remote:      client,
		Auth:        client.Refresher(),
		Logger:      logger,
	}), nil
}

// newLogger logs to stderr: everything with --debug, only errors with --quiet,
// otherwise warnings and up.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
