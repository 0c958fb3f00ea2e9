// Package apperr defines the application-level errors that carry their own
// HTTP status and client-facing message.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a sentinel raised by the store or handlers when the outcome is
// already known to be a client error. The HTTP layer writes Status and Msg
// verbatim.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string {
	return e.Msg
}

func New(status int, msg string) *Error {
	return &Error{Status: status, Msg: msg}
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, msg)
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, msg)
}

// As reports whether err wraps an *Error and returns it.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is an *Error with status 404.
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Status == http.StatusNotFound
}
