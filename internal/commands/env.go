package commands

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"

	"widgetsync/internal/scope"
	"widgetsync/internal/service"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
	"widgetsync/internal/timeline"
)

// Authenticator signs a user in against the backend and stores the tokens.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*oauth2.Token, string, error)
}

// EnvDeps are the pieces an Env is assembled from.
type EnvDeps struct {
	KV          store.KV
	Credentials *store.Credentials
	Remote      service.Remote
	Auth        Authenticator
	Clock       task.Clock
	Logger      *slog.Logger
}

// Env is what store-backed commands operate on.
type Env struct {
	KV          store.KV
	Cache       *store.Cache
	Credentials *store.Credentials
	Resolver    *scope.Resolver
	Engine      *service.Engine
	Auth        Authenticator
	Clock       task.Clock
}

// NewEnv wires the cache, resolver and engine over one shared store.
// A nil Credentials is created over KV.
func NewEnv(d EnvDeps) *Env {
	if d.Credentials == nil {
		d.Credentials = store.NewCredentials(d.KV)
	}
	if d.Clock == nil {
		d.Clock = task.SystemClock{}
	}
	cache := store.NewCache(d.KV)
	resolver := scope.NewResolver(d.Credentials, cache)
	return &Env{
		KV:          d.KV,
		Cache:       cache,
		Credentials: d.Credentials,
		Resolver:    resolver,
		Engine: service.NewEngine(service.Deps{
			Cache:    cache,
			Resolver: resolver,
			Remote:   d.Remote,
			Reloader: timeline.NewStoreReloader(d.KV, d.Clock),
			Clock:    d.Clock,
			Logger:   d.Logger,
		}),
		Auth:  d.Auth,
		Clock: d.Clock,
	}
}

// Close releases the underlying store.
func (e *Env) Close() error {
	if e == nil || e.KV == nil {
		return nil
	}
	return e.KV.Close()
}
