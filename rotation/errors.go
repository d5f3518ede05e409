package rotation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("admin or leader role required")
	ErrNotFound               = errors.New("not found")
	ErrNoEligibleCurators     = errors.New("no eligible curators")
)

// ValidationError reports one missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError names the assignment whose window overlaps the
// requested one, so the operator can decide to skip it or wait.
type ConflictError struct {
	AssignmentID int
	MemberName   string
	StartOn      time.Time
	EndOn        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"window overlaps assignment for %s (%s to %s)",
		e.MemberName,
		e.StartOn.Format(time.DateOnly),
		e.EndOn.Format(time.DateOnly),
	)
}
