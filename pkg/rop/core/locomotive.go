package core

import (
	"context"
	"sync"
)

type CancellationHandlers[In any] struct {
	// OnCancel receives the input channel once ctx is done. It may drain it.
	OnCancel func(ctx context.Context, inputCh <-chan In)
	// OnCancelUnprocessed receives an item taken from inputCh after ctx was
	// already done.
	OnCancelUnprocessed func(ctx context.Context, unprocessed In)
}

// Locomotive pulls items from inputCh and runs engine on each until inputCh is
// closed or ctx is done. It is the body of one worker line.
func Locomotive[In any](ctx context.Context, inputCh <-chan In,
	engine func(ctx context.Context, input In),
	handlers CancellationHandlers[In], wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			if handlers.OnCancel != nil {
				handlers.OnCancel(ctx, inputCh)
			}
			return
		case in, ok := <-inputCh:
			if !ok {
				return
			}

			if ctx.Err() != nil {
				if handlers.OnCancelUnprocessed != nil {
					handlers.OnCancelUnprocessed(ctx, in)
				}
				if handlers.OnCancel != nil {
					handlers.OnCancel(ctx, inputCh)
				}
				return
			}

			engine(ctx, in)
		}
	}
}

// Lines starts n locomotives over inputCh and returns a WaitGroup that is
// released once all of them have stopped.
func Lines[In any](ctx context.Context, inputCh <-chan In,
	engine func(ctx context.Context, input In),
	handlers CancellationHandlers[In], n int) *sync.WaitGroup {

	wg := &sync.WaitGroup{}
	for range n {
		wg.Add(1)
		go Locomotive(ctx, inputCh, engine, handlers, wg)
	}
	return wg
}
