package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotFound    = errors.New("account not found")
	ErrConflict    = errors.New("conflict")
	ErrBadRequest  = errors.New("bad request")
)

// APIError carries the status code and message of a failed call. It
// matches one of the sentinels above by status.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.kind
}
