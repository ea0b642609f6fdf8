package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"widgetsync/internal/config"
	"widgetsync/internal/exitcode"
	"widgetsync/internal/scope"
	"widgetsync/internal/store"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command: backend, session, linked scopes
// and the last recorded sync error.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Show backend, session and cache state" }
func (c *StatusCmd) Usage() string     { return "widgetsync status [common flags]" }
func (c *StatusCmd) NeedsStore() bool  { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	cred, err := env.Credentials.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read credentials: %v\n", err)
		return exitcode.BackendError
	}

	backend := "not configured"
	if cred.HasBackend() {
		backend = cred.BaseURL
	}
	fmt.Fprintf(out, "backend: %s\n", backend)
	fmt.Fprintf(out, "session: %s\n", describeSession(cred, env.Clock.Now()))

	for _, s := range scope.All {
		line, err := describeScope(ctx, env, s)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read %s: %v\n", s, err)
			return exitcode.BackendError
		}
		fmt.Fprintf(out, "%s: %s\n", s, line)
	}

	if last := env.Engine.LastError(ctx); last != "" {
		fmt.Fprintf(out, "last error: %s\n", last)
	}
	return exitcode.Success
}

// describeSession reads the access token's subject and expiry without
// verifying its signature; only the backend can do that.
func describeSession(cred store.Credential, now time.Time) string {
	if cred.AccessToken == "" {
		if cred.RefreshToken != "" {
			return "refresh token only"
		}
		return "not signed in"
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(cred.AccessToken, &claims); err != nil {
		return "signed in (token unreadable)"
	}

	desc := "signed in"
	if claims.Subject != "" {
		desc += " as " + claims.Subject
	}
	if claims.ExpiresAt == nil {
		return desc
	}
	exp := claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	if !now.Before(claims.ExpiresAt.Time) {
		return fmt.Sprintf("%s, expired %s (refreshed on next sync)", desc, exp)
	}
	return fmt.Sprintf("%s, expires %s", desc, exp)
}

func describeScope(ctx context.Context, env *Env, s scope.Scope) (string, error) {
	target, err := env.Resolver.Resolve(ctx, s)
	if err != nil {
		return "", err
	}
	if target.UserID == "" {
		return "not linked", nil
	}

	who := target.UserID
	if target.DisplayName != "" {
		who = fmt.Sprintf("%s (%s)", target.DisplayName, target.UserID)
	}

	tasks, ok, err := env.Cache.Tasks(ctx, target.CacheKey)
	switch {
	case err != nil:
		return who + ", cache unreadable", nil
	case !ok:
		return who + ", not cached", nil
	case len(tasks) == 1:
		return who + ", 1 cached task", nil
	default:
		return fmt.Sprintf("%s, %d cached tasks", who, len(tasks)), nil
	}
}
