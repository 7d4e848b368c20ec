package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/unlevel/internal/record"
)

// PassErrorCode categorizes fatal pass errors.
type PassErrorCode string

const (
	// ErrCodeStructuralFailure indicates the category could not be enumerated.
	ErrCodeStructuralFailure PassErrorCode = "STRUCTURAL_FAILURE"

	// ErrCodeCommitFailed indicates the output writer rejected a record.
	ErrCodeCommitFailed PassErrorCode = "COMMIT_FAILED"

	// ErrCodeAborted indicates the caller cancelled the run between records.
	ErrCodeAborted PassErrorCode = "ABORTED"
)

// PassError is a fatal error that aborts a pass.
//
// PassError includes structured fields for diagnostics: the pass and
// category it occurred in, and the record key when one is involved.
type PassError struct {
	Code     PassErrorCode
	Pass     string
	Category record.Category
	Key      record.FormKey
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *PassError) Error() string {
	msg := fmt.Sprintf("%s: %s (pass=%s, category=%s)", e.Code, e.Message, e.Pass, e.Category)
	if !e.Key.IsZero() {
		msg = fmt.Sprintf("%s: %s (pass=%s, category=%s, key=%s)", e.Code, e.Message, e.Pass, e.Category, e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PassError) Unwrap() error {
	return e.Err
}

// IsStructuralError reports whether err is a structural pass failure.
// Uses errors.As to handle wrapped errors.
func IsStructuralError(err error) bool {
	var pe *PassError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeStructuralFailure
	}
	return false
}

// IsAborted reports whether err is a cancellation abort.
func IsAborted(err error) bool {
	var pe *PassError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeAborted
	}
	return false
}
