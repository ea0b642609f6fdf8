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
	"widgetsync/internal/service"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command: the tap on a task row.
type ToggleCmd struct {
	scope string
}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"tap"} }
func (c *ToggleCmd) Synopsis() string  { return "Advance a task to its next state" }
func (c *ToggleCmd) Usage() string     { return "widgetsync toggle [--scope <scope>] <task-id|@row>" }
func (c *ToggleCmd) NeedsStore() bool  { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.scope, "scope", string(scope.Me), "")
}

// SetScope sets the hinted scope (for testing).
func (c *ToggleCmd) SetScope(s string) {
	c.scope = s
}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	hint, err := scope.Parse(c.scope)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	taskID, err := resolveTaskID(ctx, env, hint, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	res := env.Engine.Activate(ctx, taskID, hint)
	report(cfg, res, out, errOut)

	// The tap is done once dispatched; failures are reported, not returned.
	return exitcode.Success
}

// report prints a result to out, or to errOut as a warning.
func report(cfg *config.Config, res service.Result, out, errOut io.Writer) {
	if cfg.Quiet {
		return
	}
	if output.IsWarning(res) {
		fmt.Fprintf(errOut, "warning: %s: %s\n", res.Scope, output.Summary(res))
		return
	}
	output.FormatResult(out, res)
}
