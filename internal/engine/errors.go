package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers branch on. Anything the
// daemon rejected that is not one of these is wrapped in an *EngineError.
var (
	// ErrEngineUnreachable means the daemon socket/API could not be reached.
	// Refreshes hitting this are retryable by the user.
	ErrEngineUnreachable = errors.New("engine unreachable")

	// ErrInUse means a deletion was blocked by an active reference.
	ErrInUse = errors.New("resource in use")

	// ErrNotFound means the resource is already gone. Deletion callers
	// record this as success.
	ErrNotFound = errors.New("resource not found")
)

// EngineError carries an error payload returned by the engine for a specific
// call, keeping the operation and subject for per-resource reporting.
type EngineError struct {
	Op   string
	Kind Kind
	ID   string
	Err  error
}

func (e *EngineError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("engine: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine: %s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
