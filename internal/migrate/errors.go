package migrate

import (
	"errors"
	"fmt"
)

// ErrMissingDependency marks a record whose parent, project, predicate or
// observation could not be resolved. Non-fatal: the batch driver counts the
// record as skipped.
var ErrMissingDependency = errors.New("missing dependency")

// ErrBadScope is raised before any work happens when neither a project nor a
// modification horizon was supplied.
var ErrBadScope = errors.New("batch scope requires a project uuid, a modified-after timestamp, or both")

// MissingDependencyError carries the unresolvable legacy id. Unwraps to
// ErrMissingDependency so callers can test with errors.Is.
type MissingDependencyError struct {
	LegacyID string
	Reason   string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("missing dependency %q: %s", e.LegacyID, e.Reason)
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

func missingDep(legacyID, reason string) error {
	return &MissingDependencyError{LegacyID: legacyID, Reason: reason}
}

// CycleError marks a resolution that re-entered an id still being migrated.
// Callers treat it as a missing dependency, but the condition only reflects
// the in-progress resolution stack, so the resolver never memoizes it.
type CycleError struct {
	LegacyID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic legacy reference %q", e.LegacyID)
}

func (e *CycleError) Unwrap() error { return ErrMissingDependency }

// TypeConflictError reports a disagreement between a predicate's declared
// data type and the object kinds actually used by legacy data. Fatal for the
// one record, never silently reconciled.
type TypeConflictError struct {
	PredicateID string
	Declared    string
	Found       []string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("type conflict on predicate %q: declared %s, found %v", e.PredicateID, e.Declared, e.Found)
}

// PersistenceError wraps a store rejection for one record.
type PersistenceError struct {
	Kind     string
	LegacyID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %q: %v", e.Kind, e.LegacyID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
