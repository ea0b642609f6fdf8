// Package scope maps viewing targets (self or a partner) to their cache key,
// remote user id, and display name.
package scope

import (
	"context"
	"fmt"
	"strings"

	"widgetsync/internal/store"
	"widgetsync/internal/task"
)

// Scope is a viewing context.
type Scope string

const (
	Me       Scope = "me"
	Partner1 Scope = "partner1"
	Partner2 Scope = "partner2"
	Partner3 Scope = "partner3"
)

// All lists the supported scopes in scan order.
var All = []Scope{Me, Partner1, Partner2, Partner3}

// Parse converts a name to a Scope. Empty input means Me.
func Parse(s string) (Scope, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Me, nil
	}
	for _, sc := range All {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scope: %s", s)
}

// partnerIndex returns the 0-based partner slot, or -1 for Me.
func (s Scope) partnerIndex() int {
	switch s {
	case Partner1:
		return 0
	case Partner2:
		return 1
	case Partner3:
		return 2
	default:
		return -1
	}
}

// CacheKey returns the local cache key holding this scope's tasks.
func (s Scope) CacheKey() string {
	if i := s.partnerIndex(); i >= 0 {
		return store.PartnerTasksKey(i)
	}
	return store.MyTasksKey
}

// UserIDKey returns the credential key holding this scope's remote user id.
func (s Scope) UserIDKey() string {
	if i := s.partnerIndex(); i >= 0 {
		return store.PartnerUserIDKey(i)
	}
	return store.MyUserIDKey
}

// NameKey returns the display-name key, or "" for Me which has none.
func (s Scope) NameKey() string {
	if i := s.partnerIndex(); i >= 0 {
		return store.PartnerNameKey(i)
	}
	return ""
}

// Role returns the viewer role for tasks found under this scope.
func (s Scope) Role() task.Role {
	if s == Me {
		return task.Owner
	}
	return task.Partner
}

// Number returns the 1-based partner number, or 0 for Me.
func (s Scope) Number() int {
	return s.partnerIndex() + 1
}

// Target is a resolved scope.
type Target struct {
	Scope       Scope
	CacheKey    string
	UserID      string
	DisplayName string
}

// Resolver looks up the per-scope identity stored by the host app.
type Resolver struct {
	creds *store.Credentials
	cache *store.Cache
}

// NewResolver creates a resolver.
func NewResolver(creds *store.Credentials, cache *store.Cache) *Resolver {
	return &Resolver{creds: creds, cache: cache}
}

// Resolve returns the target for s. UserID is empty if none is configured.
func (r *Resolver) Resolve(ctx context.Context, s Scope) (Target, error) {
	uid, err := r.creds.UserID(ctx, s.UserIDKey())
	if err != nil {
		return Target{}, err
	}
	t := Target{
		Scope:    s,
		CacheKey: s.CacheKey(),
		UserID:   uid,
	}
	if key := s.NameKey(); key != "" {
		name, err := r.cache.String(ctx, key)
		if err != nil {
			return Target{}, err
		}
		t.DisplayName = name
	}
	return t, nil
}

// Link stores the remote user id and optional display name for s.
func (r *Resolver) Link(ctx context.Context, s Scope, userID, displayName string) error {
	if err := r.creds.SetUserID(ctx, s.UserIDKey(), userID); err != nil {
		return err
	}
	if key := s.NameKey(); key != "" && displayName != "" {
		return r.cache.SetString(ctx, key, displayName)
	}
	return nil
}
