package holds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sabscarpenter/skytravel/internal/database"
)

// ErrHoldExpired is returned by Finalize when any seat is no longer a live
// hold of the traveler.
var ErrHoldExpired = errors.New("hold expired or invalid")

// ValidationError rejects a malformed request before anything is written
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidClassError rejects a fare-class token that is unknown or does not
// match the seat's cabin
type InvalidClassError struct {
	Token string
	Seat  string
}

func (e *InvalidClassError) Error() string {
	if e.Seat != "" {
		return fmt.Sprintf("invalid class %q for seat %s", e.Token, e.Seat)
	}
	return fmt.Sprintf("invalid class %q", e.Token)
}

// ConflictError lists requested seats already ticketed or held by someone else
type ConflictError struct {
	Seats []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

// StorageError wraps a database failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the transaction failed on a serialization
// conflict or deadlock and may be run again.
func (e *StorageError) Retryable() bool {
	return database.IsRetryable(e.Err)
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
