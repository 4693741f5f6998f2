// Package service defines the backend-agnostic interface for session and task operations.
package service

import "time"

// Task represents a single task item as returned by the backend.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is the account behind a session.
// SignIn and SignUp only know the email (and name); GetSession returns the full record.
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is an authenticated session.
type Session struct {
	Token string
	User  User

	// Expiry is read from the token when it carries one; zero otherwise.
	Expiry time.Time
}

// TaskCreate holds the fields for a new task.
type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskUpdate is a partial update. Nil fields are left unchanged server-side.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}
