package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string   { return "Sign out and remove stored credentials" }
func (c *LogoutCmd) Usage() string      { return "todo logout [common flags]" }
func (c *LogoutCmd) NeedsService() bool { return true }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// The revoke call is best effort; only a failure to clear local state is reported.
	signedIn, err := svc.SignOut(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		if signedIn {
			fmt.Fprintln(out, "ok")
		} else {
			fmt.Fprintln(out, "not logged in")
		}
	}
	return exitcode.Success
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Show the signed-in account" }
func (c *WhoamiCmd) Usage() string      { return "todo whoami [common flags]" }
func (c *WhoamiCmd) NeedsService() bool { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	sess, ok := svc.GetSession(ctx)
	if !ok {
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError
	}

	line := sess.User.Email
	if sess.User.ID != "" {
		line += " (" + sess.User.ID + ")"
	}
	fmt.Fprintln(out, line)

	if !sess.Expiry.IsZero() && !cfg.Quiet {
		fmt.Fprintf(out, "token expires %s\n", sess.Expiry.Local().Format(time.RFC3339))
	}
	return exitcode.Success
}
