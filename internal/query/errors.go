package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPageRequest is returned before any query is dispatched.
	ErrInvalidPageRequest = errors.New("invalid page request")
	// ErrQueryExecution marks failures coming from the underlying store.
	ErrQueryExecution = errors.New("query execution failed")
)

// ExecutionError wraps a store failure for one of the plans.
// It matches both ErrQueryExecution and the original error under errors.Is/As.
type ExecutionError struct {
	Op  string // content, count or slice
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s query: %v", ErrQueryExecution, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() []error { return []error{ErrQueryExecution, e.Err} }

func execErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExecutionError{Op: op, Err: err}
}
