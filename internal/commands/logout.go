package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"widgetsync/internal/config"
	"widgetsync/internal/exitcode"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored session tokens" }
func (c *LogoutCmd) Usage() string     { return "widgetsync logout [common flags]" }
func (c *LogoutCmd) NeedsStore() bool  { return true }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	cred, err := env.Credentials.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read credentials: %v\n", err)
		return exitcode.BackendError
	}

	if cred.AccessToken == "" && cred.RefreshToken == "" {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	// The backend address and linked user ids stay; only the session goes.
	if err := env.Credentials.ClearTokens(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove tokens: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
