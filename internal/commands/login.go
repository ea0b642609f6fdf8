package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"

	"widgetsync/internal/config"
	"widgetsync/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. It stores the backend address and,
// when an email is given, signs in and stores the session tokens.
type LoginCmd struct {
	url      string
	anonKey  string
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Configure the backend and sign in" }
func (c *LoginCmd) Usage() string {
	return "widgetsync login [--url <url> --anon-key <key>] [--email <email> --password <password>]"
}
func (c *LoginCmd) NeedsStore() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.url, "url", "", "")
	fs.StringVar(&c.anonKey, "anon-key", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

// SetBackend sets the --url and --anon-key values (for testing).
func (c *LoginCmd) SetBackend(url, anonKey string) {
	c.url, c.anonKey = url, anonKey
}

// SetAccount sets the --email and --password values (for testing).
func (c *LoginCmd) SetAccount(email, password string) {
	c.email, c.password = email, password
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	cred, err := env.Credentials.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read credentials: %v\n", err)
		return exitcode.BackendError
	}

	// Either flag may be given alone; the other keeps its stored value.
	if c.url != "" || c.anonKey != "" {
		url := firstNonEmpty(strings.TrimSpace(c.url), cred.BaseURL)
		key := firstNonEmpty(strings.TrimSpace(c.anonKey), cred.APIKey)
		if url == "" || key == "" {
			fmt.Fprintln(errOut, "error: both --url and --anon-key are required")
			return exitcode.UserError
		}
		if err := env.Credentials.SetBackend(ctx, url, key); err != nil {
			fmt.Fprintf(errOut, "error: failed to save backend: %v\n", err)
			return exitcode.BackendError
		}
		cred.BaseURL, cred.APIKey = url, key
	}

	if !cred.HasBackend() {
		fmt.Fprintln(errOut, "error: backend not configured (run: widgetsync login --url <url> --anon-key <key>)")
		return exitcode.AuthError
	}

	if c.email == "" {
		if c.url == "" && c.anonKey == "" {
			fmt.Fprintln(errOut, "error: --email required")
			return exitcode.UserError
		}
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	}
	if c.password == "" {
		fmt.Fprintln(errOut, "error: --password required")
		return exitcode.UserError
	}

	_, userID, err := env.Auth.SignIn(ctx, c.email, c.password)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			fmt.Fprintf(errOut, "error: sign in failed: %v\n", err)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		if userID != "" {
			fmt.Fprintf(out, "ok (user %s)\n", userID)
		} else {
			fmt.Fprintln(out, "ok")
		}
	}
	return exitcode.Success
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
