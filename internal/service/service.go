// Package service defines the backend-agnostic interface for session and task operations.
package service

import "context"

// Service defines the interface for backend operations.
// All REST calls go through this interface.
// Commands never build HTTP requests directly.
type Service interface {
	// SignIn authenticates with email and password and stores the returned token.
	// Rejected credentials return an error of kind KindAuthFailed.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignUp registers a new account and stores the returned token.
	// Rejected registrations return an error of kind KindRegistrationFailed.
	SignUp(ctx context.Context, email, password, name string) (Session, error)

	// SignOut revokes the token server-side when possible and always clears it locally.
	// It reports whether a session was stored; the error only reports a failure to clear local state.
	SignOut(ctx context.Context) (bool, error)

	// GetSession validates the stored token against the backend.
	// Returns false when there is no token, the backend rejects it, or the backend is unreachable.
	GetSession(ctx context.Context) (Session, bool)

	// ListTasks returns the current user's tasks in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. The title must be non-empty after trimming.
	CreateTask(ctx context.Context, in TaskCreate) (Task, error)

	// UpdateTask applies a partial update and returns the updated task.
	UpdateTask(ctx context.Context, id string, in TaskUpdate) (Task, error)

	// ToggleTask flips the completed flag server-side and returns the server's state.
	ToggleTask(ctx context.Context, id string) (Task, error)

	// DeleteTask deletes a task. Deleting a missing task returns an error of kind KindNotFound.
	DeleteTask(ctx context.Context, id string) error
}
