// SPDX-License-Identifier: MIT

package meeting

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks operations on a meeting identifier that does not
	// exist, including identifiers removed by a delete.
	ErrNotFound = errors.New("meeting not found")

	// ErrInvalidState marks operations that require a specific lifecycle
	// state, e.g. a completion callback against an already-terminal meeting.
	ErrInvalidState = errors.New("invalid meeting state")
)

// ValidationError reports malformed caller input. Callers recover by fixing
// the input; it is never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a failed artifact store read or write. It is surfaced
// to the caller unchanged; no retry happens at this layer.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s for meeting %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func isInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
