package service

import (
	"errors"
	"fmt"
)

// Kind classifies a backend or client error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuthExpired
	KindValidation
	KindNotFound
	KindForbidden
	KindServer
	KindNotAuthenticated
	KindAuthFailed
	KindRegistrationFailed
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown error",
	KindNetwork:            "network error",
	KindAuthExpired:        "session expired",
	KindValidation:         "validation error",
	KindNotFound:           "not found",
	KindForbidden:          "forbidden",
	KindServer:             "server error",
	KindNotAuthenticated:   "not authenticated",
	KindAuthFailed:         "sign in failed",
	KindRegistrationFailed: "registration failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the structured error returned by Service implementations.
type Error struct {
	Kind Kind

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Message is suitable for direct display.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message or status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNetwork            = &Error{Kind: KindNetwork}
	ErrAuthExpired        = &Error{Kind: KindAuthExpired}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrServer             = &Error{Kind: KindServer}
	ErrUnknown            = &Error{Kind: KindUnknown}
	ErrNotAuthenticated   = &Error{Kind: KindNotAuthenticated}
	ErrAuthFailed         = &Error{Kind: KindAuthFailed}
	ErrRegistrationFailed = &Error{Kind: KindRegistrationFailed}
)

// NewError builds an *Error with a display message.
func NewError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsServerUnavailable reports whether the request may succeed if the user retries.
// Clients never retry automatically.
func IsServerUnavailable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindServer:
		return true
	}
	return false
}

// IsAuthError reports whether the user has to sign in (again) before retrying.
func IsAuthError(err error) bool {
	switch KindOf(err) {
	case KindNotAuthenticated, KindAuthExpired, KindAuthFailed:
		return true
	}
	return false
}

// IsUserCorrectable reports whether the error is caused by the user's input.
func IsUserCorrectable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindForbidden, KindRegistrationFailed:
		return true
	}
	return false
}
