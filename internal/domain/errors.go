package domain

import (
	"fmt"
	"strings"
)

// The engine reports every failure as exactly one of the typed errors below.
// Nothing is retried internally and there is no partial success; callers match
// with errors.As and decide their own policy.

// NotFoundError: the referenced entity id does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ValidationError: malformed input, such as an empty required field or an
// out-of-enum value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PreconditionError: the entity exists but is in the wrong state for the
// requested operation.
type PreconditionError struct {
	Entity string
	ID     uint
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}

// CrossProcessError: a reference crosses a Process boundary, such as a task
// instance pointing at a task of a different process.
type CrossProcessError struct {
	Entity        string
	ID            uint
	ProcessID     uint
	WantProcessID uint
}

func (e *CrossProcessError) Error() string {
	return fmt.Sprintf("%s %d belongs to process %d, not process %d",
		e.Entity, e.ID, e.ProcessID, e.WantProcessID)
}

// Dependent is one class of objects blocking a deletion.
type Dependent struct {
	Kind  string
	Count int64
}

// DependencyError: deletion blocked by existing dependents.
type DependencyError struct {
	Entity     string
	ID         uint
	Dependents []Dependent
}

func (e *DependencyError) Error() string {
	parts := make([]string, 0, len(e.Dependents))
	for _, d := range e.Dependents {
		parts = append(parts, fmt.Sprintf("%s: %d", d.Kind, d.Count))
	}
	return fmt.Sprintf("cannot delete %s %d, dependents exist (%s)",
		e.Entity, e.ID, strings.Join(parts, ", "))
}

// StatePreventsDeletionError: deletion blocked by the entity's live state.
type StatePreventsDeletionError struct {
	Entity string
	ID     uint
	Status string
}

func (e *StatePreventsDeletionError) Error() string {
	return fmt.Sprintf("cannot delete %s %d while %s", e.Entity, e.ID, e.Status)
}

// InvalidTransitionError: the requested status is outside the entity's
// enumerated state set.
type InvalidTransitionError struct {
	Entity string
	Status string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status %q", e.Entity, e.Status)
}

// GraphInvalidError: activation-time structural check failure.
type GraphInvalidError struct {
	ProcessID uint
	Problems  []string
}

func (e *GraphInvalidError) Error() string {
	return fmt.Sprintf("process %d graph invalid: %s",
		e.ProcessID, strings.Join(e.Problems, "; "))
}
