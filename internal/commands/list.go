package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct {
	open bool
	done bool
}

// SetFilter sets the display filter (for testing).
func (c *ListCmd) SetFilter(open, done bool) {
	c.open = open
	c.done = done
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "todo list [--open|--done]" }
func (c *ListCmd) NeedsService() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "")
	fs.BoolVar(&c.done, "done", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.open && c.done {
		fmt.Fprintln(errOut, "error: cannot use both --open and --done")
		return exitcode.UserError
	}

	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return reportError(errOut, err)
	}

	// Numbers always follow the full list so they stay valid as refs.
	shown := 0
	for i, task := range tasks {
		if (c.open && task.Completed) || (c.done && !task.Completed) {
			continue
		}
		output.FormatTask(out, i+1, task)
		shown++
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	if shown == 0 {
		fmt.Fprintln(out, "no tasks found")
		return exitcode.Success
	}
	output.FormatSummary(out, tasks)
	return exitcode.Success
}
