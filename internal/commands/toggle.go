package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Flip a task between open and done" }
func (c *ToggleCmd) Usage() string      { return "todo toggle <ref>" }
func (c *ToggleCmd) NeedsService() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, code := parseAndResolve(ctx, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	task, err := svc.ToggleTask(ctx, id)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		if task.Completed {
			fmt.Fprintln(out, "ok: done")
		} else {
			fmt.Fprintln(out, "ok: open")
		}
	}
	return exitcode.Success
}
