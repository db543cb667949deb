package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a referenced id is missing from the repository.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a conditional status update found the item
	// already transitioned by someone else.
	ErrConflict = errors.New("status conflict")

	// ErrRunActive signals a pipeline run is already marked running.
	ErrRunActive = errors.New("pipeline run already active")
)

// TransientError marks a generation failure worth retrying: timeouts,
// rate limits, temporary upstream trouble.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a generation failure the adapter declared
// unrecoverable; retrying is pointless and the caller should fall back.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether the error chain contains a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether the error chain contains a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
