package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"widgetsync/internal/config"
	"widgetsync/internal/exitcode"
	"widgetsync/internal/scope"
)

func init() {
	Register(&LinkCmd{})
}

// LinkCmd implements the link command, which records whose tasks a scope shows.
type LinkCmd struct{}

func (c *LinkCmd) Name() string      { return "link" }
func (c *LinkCmd) Aliases() []string { return nil }
func (c *LinkCmd) Synopsis() string  { return "Set the user id (and name) shown by a scope" }
func (c *LinkCmd) Usage() string     { return "widgetsync link <scope> <user-id> [name...]" }
func (c *LinkCmd) NeedsStore() bool  { return true }

func (c *LinkCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LinkCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintf(errOut, "error: usage: %s\n", c.Usage())
		return exitcode.UserError
	}
	s, err := scope.Parse(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	userID := strings.TrimSpace(args[1])
	if userID == "" {
		fmt.Fprintln(errOut, "error: user id required")
		return exitcode.UserError
	}
	name := strings.TrimSpace(strings.Join(args[2:], " "))
	if name != "" && s == scope.Me {
		fmt.Fprintln(errOut, "error: a name can only be set for partner scopes")
		return exitcode.UserError
	}

	if err := env.Resolver.Link(ctx, s, userID, name); err != nil {
		fmt.Fprintf(errOut, "error: failed to link %s: %v\n", s, err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
