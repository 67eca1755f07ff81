package sequence

import (
	"context"
	"sync/atomic"

	"github.com/ib-77/nnlogprob/pkg/rop"
)

// Task is one unit of sequenced work.
//
// Compute must only read shared state and write into the task itself; it may
// run concurrently with other tasks' Compute and Finalize. Finalize is called
// at most once, after Compute succeeded, never concurrently with another
// Finalize, and in submission order.
type Task interface {
	Compute(ctx context.Context) error
	Finalize(ctx context.Context) error
}

// Funcs adapts a pair of closures to Task. A nil closure is a no-op.
type Funcs struct {
	ComputeFunc  func(ctx context.Context) error
	FinalizeFunc func(ctx context.Context) error
}

func (f Funcs) Compute(ctx context.Context) error {
	if f.ComputeFunc == nil {
		return nil
	}
	return f.ComputeFunc(ctx)
}

func (f Funcs) Finalize(ctx context.Context) error {
	if f.FinalizeFunc == nil {
		return nil
	}
	return f.FinalizeFunc(ctx)
}

type State int32

const (
	StateQueued State = iota
	StateRunning
	StateComputed
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateComputed:
		return "computed"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// entry is the sequencer's bookkeeping for one submitted task.
type entry struct {
	seq    uint64
	task   Task
	state  atomic.Int32
	result rop.Result[struct{}]
}

func newEntry(seq uint64, task Task) *entry {
	e := &entry{seq: seq, task: task}
	e.setState(StateQueued)
	return e
}

func (e *entry) setState(s State) {
	e.state.Store(int32(s))
}

func (e *entry) State() State {
	return State(e.state.Load())
}
