package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup of a reminder id with no record.
	ErrNotFound = errors.New("reminder not found")

	// ErrValidation marks a reminder payload rejected at the data-entry
	// layer.
	ErrValidation = errors.New("invalid reminder")

	// ErrPermissionDenied marks a refused location or notification
	// permission. Always recoverable: the dependent feature is disabled,
	// the rest of the app keeps working.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRegionLimitExceeded marks a region registration rejected because
	// the active set is larger than the platform ceiling.
	ErrRegionLimitExceeded = errors.New("monitored region limit exceeded")
)

// StorageError wraps a failure of the local store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DispatchError wraps a failed notification delivery. Logged only, never
// surfaced: the user cannot be notified of a notification failure.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notification dispatch: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
