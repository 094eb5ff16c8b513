package lineage

import (
	"errors"
	"fmt"
)

// ErrNilTree is the sentinel runtime error for a nil or incomplete statement
// tree passed to Extract. Ambiguous scopes and unresolved columns are never
// errors: they are non-fatal and surface as _warnings entries instead (see
// attributor.go).
var ErrNilTree = errors.New("lineage: nil statement tree")

// RuntimeError wraps an unexpected condition encountered while walking a
// statement tree. It carries the operation name alongside the underlying
// error, so the caller gets a precise "where did this happen" without a
// bare errors.New string.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("lineage.%s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func newRuntimeError(op string, err error) *RuntimeError {
	if err == nil {
		return nil
	}

	return &RuntimeError{Op: op, Err: err}
}
