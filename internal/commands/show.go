package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"widgetsync/internal/config"
	"widgetsync/internal/exitcode"
	"widgetsync/internal/output"
	"widgetsync/internal/scope"
	"widgetsync/internal/timeline"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
// Handles both `widgetsync` (no args) and `widgetsync show <scope>`.
// It reads only the local cache.
type ShowCmd struct {
	family string
	yaml   bool
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Print the cached widget snapshot" }
func (c *ShowCmd) Usage() string {
	return "widgetsync show [--family small|medium|large] [--yaml] [scope]"
}
func (c *ShowCmd) NeedsStore() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.family, "family", string(timeline.Large), "")
	fs.BoolVar(&c.yaml, "yaml", false, "")
}

// SetFamily sets the widget family (for testing).
func (c *ShowCmd) SetFamily(f string) {
	c.family = f
}

// SetYAML selects YAML output (for testing).
func (c *ShowCmd) SetYAML(y bool) {
	c.yaml = y
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: usage: %s\n", c.Usage())
		return exitcode.UserError
	}
	family, err := timeline.ParseFamily(c.family)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
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

	entry := env.Engine.Snapshot(ctx, s, family)
	if c.yaml {
		if err := output.WriteYAML(out, entry); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		return exitcode.Success
	}
	output.FormatEntry(out, entry)
	return exitcode.Success
}
