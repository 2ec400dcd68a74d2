package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrUpstreamData       = errors.New("upstream data error")
	ErrAssignmentConflict = errors.New("assignment conflict")
	ErrNotFound           = errors.New("not found")
)

// ValidationError rejects a request before any computation happens.
type ValidationError struct {
	Stage     string
	CreatorID string
	Reason    string
}

func NewValidationError(stage, creatorID, format string, args ...any) *ValidationError {
	return &ValidationError{Stage: stage, CreatorID: creatorID, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s for creator %q: %s", e.Stage, e.CreatorID, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UpstreamDataError means reference data was unavailable or malformed.
type UpstreamDataError struct {
	Stage     string
	CreatorID string
	Err       error
}

func NewUpstreamDataError(stage, creatorID string, err error) *UpstreamDataError {
	return &UpstreamDataError{Stage: stage, CreatorID: creatorID, Err: err}
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream data error at %s for creator %q: %v", e.Stage, e.CreatorID, e.Err)
}

func (e *UpstreamDataError) Is(target error) bool {
	return target == ErrUpstreamData
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Err
}

// AssignmentConflictError lists ledger keys that already hold an active
// assignment. Nothing from the attempted batch was written.
type AssignmentConflictError struct {
	CreatorID string
	Conflicts []AssignmentKey
}

func (e *AssignmentConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, k := range e.Conflicts {
		ids = append(ids, k.CaptionID+"@"+k.TargetDate.Format(DateLayout))
	}
	return fmt.Sprintf("assignment conflict for creator %q: %s", e.CreatorID, strings.Join(ids, ", "))
}

func (e *AssignmentConflictError) Is(target error) bool {
	return target == ErrAssignmentConflict
}

// CaptionIDs returns the conflicting caption ids, for retry exclusion.
func (e *AssignmentConflictError) CaptionIDs() []string {
	out := make([]string, 0, len(e.Conflicts))
	for _, k := range e.Conflicts {
		out = append(out, k.CaptionID)
	}
	return out
}
