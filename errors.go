package oscquery

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the tree API and the lifecycle orchestrator.
var (
	ErrIndexOutOfRange = errors.New("argument index out of range")
	ErrDuplicateChild  = errors.New("duplicate child")
	ErrParentNotFound  = errors.New("parent path does not resolve")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrAlreadyRunning  = errors.New("server already running")
	ErrNotRunning      = errors.New("server not running")
	ErrBadState        = errors.New("operation not valid in current state")
)

// ArgumentError reports an out-of-range argument slot access against a
// specific method path, analogous to how the teacher's RouteConflictError
// carries the offending route alongside the sentinel it wraps.
type ArgumentError struct {
	Path  string
	Index int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument index %d out of range for method %q", e.Index, e.Path)
}

// Unwrap returns the sentinel value [ErrIndexOutOfRange].
func (e *ArgumentError) Unwrap() error {
	return ErrIndexOutOfRange
}

func newArgumentError(path string, index int) error {
	return &ArgumentError{Path: path, Index: index}
}

// StateError reports an orchestrator method called while the server was in
// a state that forbids it.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("oscquery: %s invalid while server is %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrBadState
}

func newStateError(op string, s State) error {
	return &StateError{Op: op, State: s}
}
