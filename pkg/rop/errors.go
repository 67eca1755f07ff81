package rop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Recovered builds a PanicError from a value returned by recover, capturing
// the current stack. It returns nil for a nil value.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	return &PanicError{Value: v, Stack: debug.Stack()}
}

// ErrSkip marks an error as recoverable. Anything wrapping it becomes a
// skipped result instead of a failure.
var ErrSkip = errors.New("skipped")

type skipError struct {
	err error
}

func (e *skipError) Error() string { return e.err.Error() }

func (e *skipError) Unwrap() []error { return []error{e.err, ErrSkip} }

// Skippable wraps err so that errors.Is(err, ErrSkip) holds.
func Skippable(err error) error {
	if err == nil {
		return nil
	}
	return &skipError{err: err}
}
