package service

import "errors"

var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExpired      = errors.New("expired")
	ErrUnavailable  = errors.New("unavailable")
)

// Error pairs an error kind with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Message returns the client-facing text of err, or "" when err carries none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
