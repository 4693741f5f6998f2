package commands

import (
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
)

// reportError prints err and returns the matching exit code.
// Missing or rejected sessions get a hint to log in again.
func reportError(errOut io.Writer, err error) int {
	switch service.KindOf(err) {
	case service.KindNotAuthenticated, service.KindAuthExpired:
		fmt.Fprintf(errOut, "error: %v (run: todo login)\n", err)
		return exitcode.AuthError
	case service.KindAuthFailed:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	fmt.Fprintf(errOut, "error: %v\n", err)
	if service.IsUserCorrectable(err) {
		return exitcode.UserError
	}
	return exitcode.BackendError
}
