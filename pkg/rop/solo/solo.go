package solo

import (
	"context"
	"errors"

	"github.com/ib-77/nnlogprob/pkg/rop"
)

func Succeed[T any](input T) rop.Result[T] {
	return rop.Success(input)
}

func Fail[T any](err error) rop.Result[T] {
	return rop.Fail[T](err)
}

func Skip[T any](err error) rop.Result[T] {
	return rop.Skip[T](err)
}

func Cancel[T any](err error) rop.Result[T] {
	return rop.Cancel[T](err)
}

// FromError classifies err: nil is success, anything wrapping rop.ErrSkip is
// skipped, context cancellation is a cancel, the rest fail.
func FromError[T any](value T, err error) rop.Result[T] {
	switch {
	case err == nil:
		return rop.Success(value)
	case errors.Is(err, rop.ErrSkip):
		return rop.Skip[T](err)
	case rop.IsCancellationError(err):
		return rop.Cancel[T](err)
	default:
		return rop.Fail[T](err)
	}
}

// Try runs onTryExecute on a successful input. A returned error or a panic
// is classified with FromError; a panic always fails.
func Try[In any, Out any](ctx context.Context, input rop.Result[In],
	onTryExecute func(ctx context.Context, r In) (Out, error)) (res rop.Result[Out]) {

	if !input.IsSuccess() {
		return rop.CancelFrom[In, Out](input, input.Err())
	}

	defer func() {
		if err := rop.Recovered(recover()); err != nil {
			res = rop.Fail[Out](err)
		}
	}()

	out, err := onTryExecute(ctx, input.Result())
	return FromError(out, err)
}

func DoubleTee[T any](ctx context.Context, input rop.Result[T],
	onSuccess func(ctx context.Context, r T),
	onError func(ctx context.Context, err error),
	onCancel func(ctx context.Context, err error)) rop.Result[T] {

	switch {
	case input.IsSuccess():
		if onSuccess != nil {
			onSuccess(ctx, input.Result())
		}
	case input.IsCancel():
		if onCancel != nil {
			onCancel(ctx, input.Err())
		}
	default:
		if onError != nil {
			onError(ctx, input.Err())
		}
	}
	return input
}

type FinallyHandlers[In, Out any] struct {
	OnSuccess func(ctx context.Context, r In) Out
	OnError   func(ctx context.Context, err error) Out
	OnSkip    func(ctx context.Context, err error) Out
	OnCancel  func(ctx context.Context, err error) Out
}

// Finally reduces input through the handler matching its outcome. A missing
// OnSkip falls back to OnError. An empty result goes to OnCancel.
func Finally[In, Out any](ctx context.Context, input rop.Result[In],
	handlers FinallyHandlers[In, Out]) Out {

	switch {
	case input.IsSuccess():
		return handlers.OnSuccess(ctx, input.Result())
	case input.IsSkipped() && handlers.OnSkip != nil:
		return handlers.OnSkip(ctx, input.Err())
	case input.IsFailure(), input.IsSkipped():
		return handlers.OnError(ctx, input.Err())
	default:
		return handlers.OnCancel(ctx, input.Err())
	}
}
