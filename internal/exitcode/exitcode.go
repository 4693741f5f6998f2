// Package exitcode defines exit codes for the CLI.
package exitcode

// Process exit codes.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, task not found).
	UserError = 1

	// AuthError indicates a missing, rejected or expired session.
	AuthError = 2

	// BackendError indicates a server, network or unexpected response error.
	BackendError = 3
)
