package model

import (
	"errors"
	"fmt"
)

// Common sentinel errors. IncompleteData never aborts a batch: it is
// recorded on the affected result entry. InvalidGraph aborts only the
// analyses that depend on the broken reference.
var (
	ErrIncompleteData      = errors.New("incomplete data")
	ErrInvalidGraph        = errors.New("invalid graph")
	ErrRuleVersionMismatch = errors.New("rule version mismatch")
	ErrSpaceNotFound       = errors.New("space not found")
	ErrStoreyNotFound      = errors.New("storey not found")
	ErrElementNotFound     = errors.New("element not found")
)

// GraphError provides structured error information for analyses over
// the model graph.
type GraphError struct {
	Op      string // Operation that failed (e.g., "ComputeAreas")
	Entity  string // Entity type (e.g., "space", "storey")
	ID      string // Entity id (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error { return e.Cause }

// Is reports whether the target matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// InvalidGraphError reports a structural violation on an entity.
func InvalidGraphError(op, entity, id, context string) error {
	return &GraphError{Op: op, Entity: entity, ID: id, Context: context, Cause: ErrInvalidGraph}
}

// RuleVersionError reports a request for an unimplemented standard.
func RuleVersionError(op, requested string) error {
	return &GraphError{Op: op, Entity: "standard", Context: requested, Cause: ErrRuleVersionMismatch}
}

// IsInvalidGraph returns true for structural graph violations.
func IsInvalidGraph(err error) bool { return errors.Is(err, ErrInvalidGraph) }
