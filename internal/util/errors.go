// Package util holds small cross-package helpers shared by internal/cli and
// the packages it wires together: a tiny leaf package for conventions like
// error wrapping rather than repeating fmt.Errorf("%s: %w", ...) at every
// call site.
package util

import "fmt"

// WrapError annotates err with op, in the "op: err" shape used throughout
// this module's error types. Returns nil when err is nil so callers can
// write `return util.WrapError("...", someCall())` unconditionally.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", op, err)
}
