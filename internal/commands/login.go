package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

var errPasswordRequired = errors.New("password required")

// readPassword returns flagValue when set, otherwise the first line of in.
func readPassword(flagValue string, in io.Reader, prompt io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if in == nil {
		in = os.Stdin
	}
	if prompt != nil {
		fmt.Fprint(prompt, "Password: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errPasswordRequired
	}
	return line, nil
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
	in       io.Reader
}

// SetInput sets where the password is read from (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string   { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string      { return "todo login [--password <pw>] <email>" }
func (c *LoginCmd) NeedsService() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	email := strings.TrimSpace(args[0])

	// A still-valid session for the same account needs no new sign-in.
	if sess, ok := svc.GetSession(ctx); ok && strings.EqualFold(sess.User.Email, email) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	password, err := readPassword(c.password, c.in, promptWriter(cfg, errOut))
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if _, err := svc.SignIn(ctx, email, password); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	name     string
	password string
	in       io.Reader
}

// SetInput sets where the password is read from (for testing).
func (c *SignupCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *SignupCmd) Name() string       { return "signup" }
func (c *SignupCmd) Aliases() []string  { return []string{"register"} }
func (c *SignupCmd) Synopsis() string   { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string      { return "todo signup [--name <name>] [--password <pw>] <email>" }
func (c *SignupCmd) NeedsService() bool { return true }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}

	password, err := readPassword(c.password, c.in, promptWriter(cfg, errOut))
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if _, err := svc.SignUp(ctx, strings.TrimSpace(args[0]), password, c.name); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// promptWriter returns where the password prompt goes, or nil in quiet mode.
func promptWriter(cfg *config.Config, errOut io.Writer) io.Writer {
	if cfg.Quiet {
		return nil
	}
	return errOut
}
