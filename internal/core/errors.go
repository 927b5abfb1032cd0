package core

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a service error whose message is safe to return to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NotFound returns an error matching ErrNotFound with a client-facing message.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

// InvalidInput returns an error matching ErrInvalidInput with a client-facing message.
func InvalidInput(msg string) error {
	return &Error{Kind: ErrInvalidInput, Msg: msg}
}
