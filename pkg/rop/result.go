package rop

import (
	"time"

	"github.com/google/uuid"
)

type outcome uint8

const (
	outcomeEmpty outcome = iota
	outcomeSuccess
	outcomeFail
	outcomeSkip
	outcomeCancel
)

// Result is the outcome of one unit of work. A failed result is fatal to
// whoever consumes it, a skipped result is a recoverable failure that is
// counted and stepped over, and a cancelled result was never allowed to run
// to completion.
type Result[T any] struct {
	id        uuid.UUID
	createdAt time.Time
	result    T
	err       error
	outcome   outcome
}

func Success[T any](r T) Result[T] {
	return Result[T]{
		result:    r,
		outcome:   outcomeSuccess,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{
		err:       err,
		outcome:   outcomeFail,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Skip[T any](err error) Result[T] {
	return Result[T]{
		err:       err,
		outcome:   outcomeSkip,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Cancel[T any](err error) Result[T] {
	return Result[T]{
		err:       err,
		outcome:   outcomeCancel,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

// CancelFrom converts a non-successful result to another value type keeping
// its identity. A successful input becomes a cancellation with err.
func CancelFrom[In, Out any](from Result[In], err error) Result[Out] {
	if from.outcome == outcomeSuccess || from.outcome == outcomeEmpty {
		return Result[Out]{
			err:       err,
			outcome:   outcomeCancel,
			createdAt: from.createdAt,
			id:        from.id,
		}
	}
	return Result[Out]{
		err:       from.err,
		outcome:   from.outcome,
		createdAt: from.createdAt,
		id:        from.id,
	}
}

func (r Result[T]) Result() T {
	return r.result
}

func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) IsSuccess() bool {
	return r.outcome == outcomeSuccess
}

// IsFailure reports a fatal failure. Skipped and cancelled results are not
// failures.
func (r Result[T]) IsFailure() bool {
	return r.outcome == outcomeFail
}

func (r Result[T]) IsSkipped() bool {
	return r.outcome == outcomeSkip
}

func (r Result[T]) IsCancel() bool {
	return r.outcome == outcomeCancel
}

func (r Result[T]) CreatedAt() time.Time {
	return r.createdAt
}

func (r Result[T]) Id() uuid.UUID {
	return r.id
}
