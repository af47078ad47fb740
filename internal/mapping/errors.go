package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentityConflict is matched by IdentityConflictError.
	ErrIdentityConflict = errors.New("identity conflict")
	// ErrDanglingReference is matched by DanglingReferenceError.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrReconciliation is matched by ReconciliationError.
	ErrReconciliation = errors.New("reconciliation failed")
	// ErrNotTemporary is returned when promoting an identity that is not temporary.
	ErrNotTemporary = errors.New("identity is not temporary")
)

// IdentityConflictError reports an attempt to bind a native id that is
// already registered to a different object.
type IdentityConflictError struct {
	Identity NodeID
	Existing any
	Incoming any
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("identity conflict: node %s is already registered to %T(%p), cannot bind %T(%p)",
		e.Identity, e.Existing, e.Existing, e.Incoming, e.Incoming)
}

func (e *IdentityConflictError) Is(target error) bool {
	return target == ErrIdentityConflict
}

// DanglingReferenceError reports a persisted relationship whose endpoint is
// no longer registered. It means a node was removed from the registry
// without its relationships being evicted first.
type DanglingReferenceError struct {
	Relationship MappedRelationship
	Missing      NodeID
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference: relationship %s refers to unregistered node %s", e.Relationship, e.Missing)
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// ReconciliationError wraps a failed write of a save delta. The context has
// not applied any part of the delta when this error is returned.
type ReconciliationError struct {
	Creates int
	Deletes int
	Err     error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed (%d creates, %d deletes): %v", e.Creates, e.Deletes, e.Err)
}

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliation
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
