package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"widgetsync/internal/config"
	"widgetsync/internal/exitcode"
	"widgetsync/internal/scope"
)

func init() {
	Register(&RefreshCmd{})
}

// RefreshCmd implements the refresh command.
type RefreshCmd struct {
	all bool
}

func (c *RefreshCmd) Name() string      { return "refresh" }
func (c *RefreshCmd) Aliases() []string { return []string{"sync"} }
func (c *RefreshCmd) Synopsis() string  { return "Replace cached tasks with the backend's" }
func (c *RefreshCmd) Usage() string     { return "widgetsync refresh [--all] [scope]" }
func (c *RefreshCmd) NeedsStore() bool  { return true }

func (c *RefreshCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.all, "all", false, "")
}

// SetAll selects every scope (for testing).
func (c *RefreshCmd) SetAll(all bool) {
	c.all = all
}

func (c *RefreshCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 1 || (c.all && len(args) > 0) {
		fmt.Fprintf(errOut, "error: usage: %s\n", c.Usage())
		return exitcode.UserError
	}

	if c.all {
		for _, res := range env.Engine.RefreshAll(ctx) {
			report(cfg, res, out, errOut)
		}
		return exitcode.Success
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	s, err := scope.Parse(name)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	report(cfg, env.Engine.RefreshScope(ctx, s), out, errOut)
	return exitcode.Success
}
