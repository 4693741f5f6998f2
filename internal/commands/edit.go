package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a string flag that records whether it was set.
type optionalString struct {
	value *string
}

func (o *optionalString) String() string {
	if o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(s string) error {
	o.value = &s
	return nil
}

// optionalBool is a bool flag that records whether it was set.
type optionalBool struct {
	value *bool
}

func (o *optionalBool) String() string {
	if o.value == nil {
		return ""
	}
	return strconv.FormatBool(*o.value)
}

func (o *optionalBool) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean: %s", s)
	}
	o.value = &b
	return nil
}

// IsBoolFlag lets --completed be given without a value.
func (o *optionalBool) IsBoolFlag() bool { return true }

// EditCmd implements the edit command.
type EditCmd struct {
	title       optionalString
	description optionalString
	completed   optionalBool
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(title string) {
	c.title.value = &title
}

// SetCompleted sets the new completed flag (for testing).
func (c *EditCmd) SetCompleted(completed bool) {
	c.completed.value = &completed
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title, description or state" }
func (c *EditCmd) Usage() string {
	return "todo edit [--title <t>] [--description <d>] [--completed=true|false] <ref>"
}
func (c *EditCmd) NeedsService() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description, c.completed = optionalString{}, optionalString{}, optionalBool{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.completed, "completed", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	in := service.TaskUpdate{
		Title:       c.title.value,
		Description: c.description.value,
		Completed:   c.completed.value,
	}
	if in.Empty() {
		fmt.Fprintln(errOut, "error: nothing to update (use --title, --description or --completed)")
		return exitcode.UserError
	}

	id, code := parseAndResolve(ctx, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if _, err := svc.UpdateTask(ctx, id, in); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
