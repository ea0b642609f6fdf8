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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "widgetsync help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, usageText)

	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(out, "  %-9s %s\n", cmd.Name(), cmd.Synopsis())
	}

	fmt.Fprint(out, flagsText)
	return exitcode.Success
}

const usageText = `Usage:
  widgetsync                                          Show my cached tasks
  widgetsync show [common flags] [--family <f>] [--yaml] [scope]
  widgetsync toggle [common flags] [--scope <scope>] <task-id|@row>
  widgetsync tap [common flags] [--scope <scope>] <task-id|@row>
  widgetsync refresh [common flags] [--all] [scope]
  widgetsync sync [common flags] [--all] [scope]
  widgetsync link [common flags] <scope> <user-id> [name...]
  widgetsync login [common flags] [--url <url> --anon-key <key>] [--email <email> --password <password>]
  widgetsync logout [common flags]
  widgetsync status [common flags]
  widgetsync help
  widgetsync version

Scopes:
  me, partner1, partner2, partner3 (default: me)

Families:
  small (1 task), medium (2 tasks), large (6 tasks)
`

const flagsText = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
