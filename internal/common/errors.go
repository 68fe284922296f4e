// Package common defines sentinel errors and small helpers shared by the
// directory server and its clients. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrStorageFailure wraps any persistence fault. It is fatal to the
	// operation that hit it, not to the process.
	ErrStorageFailure = errors.New("storage failure")

	// Identity errors.
	ErrDuplicateUsername = errors.New("username is already taken, account could not be created")
	ErrUsernameTaken     = errors.New("username is already taken")

	// Login errors. Both map to the same transport status.
	ErrUnknownUsername  = errors.New("wrong username")
	ErrWrongCredentials = errors.New("wrong password")

	// Request validation.
	ErrInvalidDate = errors.New("invalid date")
)

// StorageError wraps err as ErrStorageFailure, tagging it with the operation
// name. Domain sentinels pass through unchanged.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrorNotFound) || errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
