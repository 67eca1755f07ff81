package sequence

import (
	"context"
	"sync"

	"github.com/ib-77/nnlogprob/pkg/rop/core"
)

// WorkerPool runs engine on queued items using a fixed number of worker
// lines. Items are taken from the queue in FIFO order.
type WorkerPool[T any] struct {
	queue   chan T
	wg      *sync.WaitGroup
	workers int
	ctx     context.Context

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts workers lines over a queue holding up to depth items.
// When ctx is done, workers stop running engine and hand every remaining
// item to onCancel instead, if it is set.
func NewWorkerPool[T any](ctx context.Context, workers, depth int,
	engine func(ctx context.Context, item T),
	onCancel func(ctx context.Context, item T)) *WorkerPool[T] {

	if workers <= 0 {
		workers = 1
	}
	if depth < 0 {
		depth = 0
	}

	p := &WorkerPool[T]{
		queue:   make(chan T, depth),
		workers: workers,
		ctx:     ctx,
	}

	handlers := core.CancellationHandlers[T]{}
	if onCancel != nil {
		handlers.OnCancelUnprocessed = onCancel
		handlers.OnCancel = func(ctx context.Context, inputCh <-chan T) {
			for item := range inputCh {
				onCancel(ctx, item)
			}
		}
	}

	p.wg = core.Lines(ctx, p.queue, engine, handlers, workers)
	return p
}

// Submit queues item, blocking while the queue is full. It fails once either
// ctx or the pool's own context is done.
func (p *WorkerPool[T]) Submit(ctx context.Context, item T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Close stops accepting items and waits for the queue to be worked off.
func (p *WorkerPool[T]) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *WorkerPool[T]) Workers() int {
	return p.workers
}
