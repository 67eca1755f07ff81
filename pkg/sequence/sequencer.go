package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ib-77/nnlogprob/pkg/rop"
	"github.com/ib-77/nnlogprob/pkg/rop/core"
	"github.com/ib-77/nnlogprob/pkg/rop/solo"
)

// Stats counts what happened to submitted tasks.
type Stats struct {
	Submitted int
	Finalized int
	Skipped   int
	// Aborted tasks were submitted but neither finalized nor skipped because
	// the pipeline halted before their turn.
	Aborted int
}

type Option func(*Sequencer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Sequencer accepts tasks from a single producer, computes them on a worker
// pool and finalizes them in submission order.
//
// Finalize calls never overlap each other, and a task's Finalize always
// follows its own Compute. Finalize runs on the worker that closed the gap in
// the order, so it may overlap Compute of later tasks on other workers. Code
// shared between Finalize and Compute must be safe for that.
type Sequencer struct {
	runID            uuid.UUID
	logger           *slog.Logger
	ctx              context.Context
	computeRemaining bool
	maxInFlight      int

	slots   chan struct{}
	aborted chan struct{}
	pool    *WorkerPool[*entry]

	mu             sync.Mutex
	settled        *sync.Cond
	pending        map[uint64]*entry
	nextSeq        uint64
	nextToFinalize uint64
	completed      uint64
	draining       bool
	halted         bool
	failed         bool
	failSeq        uint64
	cause          error
	haltErr        error
	closed         bool
	stats          Stats
}

// New starts a sequencer. Worker count and in-flight limit come from cfg
// unless ctx carries core worker or in-flight options. Cancelling ctx aborts
// the pipeline: queued tasks are not computed and nothing after them is
// finalized.
func New(ctx context.Context, cfg Config, opts ...Option) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workers := core.GetWorkerMaxCount(ctx, cfg.NumThreads)
	inFlight := core.GetInFlightMaxCount(ctx, cfg.InFlight())

	s := &Sequencer{
		runID:            uuid.New(),
		logger:           slog.Default(),
		ctx:              ctx,
		computeRemaining: core.IsComputeRemainingEnabled(ctx, false),
		maxInFlight:      inFlight,
		slots:            make(chan struct{}, inFlight),
		aborted:          make(chan struct{}),
		pending:          make(map[uint64]*entry),
	}
	s.settled = sync.NewCond(&s.mu)

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("run", s.runID.String())

	// queue depth equals the in-flight limit, so handing an admitted task to
	// the pool never blocks
	s.pool = NewWorkerPool(ctx, workers, inFlight, s.compute, s.cancelQueued)

	s.logger.Debug("sequencer started", "threads", s.pool.Workers(), "max_in_flight", s.MaxInFlight())
	return s, nil
}

func (s *Sequencer) RunID() uuid.UUID {
	return s.runID
}

// MaxInFlight returns the effective in-flight limit.
func (s *Sequencer) MaxInFlight() int {
	return s.maxInFlight
}

// InFlight returns the number of tasks currently holding a slot.
func (s *Sequencer) InFlight() int {
	return len(s.slots)
}

func (s *Sequencer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Submit hands task to the pool, blocking while MaxInFlight tasks are in
// flight. It returns once the task is queued, not once it is finalized.
// Tasks are finalized in the order of Submit calls.
func (s *Sequencer) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return ErrNilTask
	}

	s.mu.Lock()
	err := s.admissibleLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.aborted:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.abortErrLocked()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}

	s.mu.Lock()
	if err := s.admissibleLocked(); err != nil {
		s.mu.Unlock()
		<-s.slots
		return err
	}
	e := newEntry(s.nextSeq, task)
	s.nextSeq++
	s.stats.Submitted++
	s.mu.Unlock()

	if err := s.pool.Submit(s.ctx, e); err != nil {
		// e already owns a place in the order and must be accounted for
		s.settleCancelled(e, err)
		return err
	}

	s.logger.Debug("task submitted", "seq", e.seq, "in_flight", s.InFlight())
	return nil
}

func (s *Sequencer) admissibleLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.cause != nil {
		return s.abortErrLocked()
	}
	return nil
}

func (s *Sequencer) abortErrLocked() error {
	return fmt.Errorf("%w: %w", ErrAborted, s.cause)
}

// Drain blocks until every task submitted so far has returned from Compute
// and the ordered finalize has either caught up or halted. It returns the
// error that halted the pipeline, if any.
func (s *Sequencer) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.settledLocked() {
		s.settled.Wait()
	}
	return s.errLocked()
}

// Close drains the sequencer and stops its workers. Further Submit calls
// fail with ErrClosed.
func (s *Sequencer) Close() (Stats, error) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.Drain()
	s.pool.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Aborted = s.stats.Submitted - s.stats.Finalized - s.stats.Skipped
	s.logger.Debug("sequencer closed",
		"submitted", s.stats.Submitted,
		"finalized", s.stats.Finalized,
		"skipped", s.stats.Skipped,
		"aborted", s.stats.Aborted)

	return s.stats, err
}

func (s *Sequencer) settledLocked() bool {
	if s.draining || s.completed != s.nextSeq {
		return false
	}
	return s.halted || s.nextToFinalize == s.nextSeq
}

func (s *Sequencer) errLocked() error {
	if s.haltErr != nil {
		return s.haltErr
	}
	return s.cause
}

func (s *Sequencer) skipCompute(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed && seq > s.failSeq && !s.computeRemaining
}

// compute is the worker engine.
func (s *Sequencer) compute(ctx context.Context, e *entry) {
	if s.skipCompute(e.seq) {
		s.settleCancelled(e, ErrAborted)
		return
	}

	e.setState(StateRunning)
	e.result = solo.Try(ctx, solo.Succeed(e.task), func(ctx context.Context, t Task) (struct{}, error) {
		return struct{}{}, t.Compute(ctx)
	})

	solo.DoubleTee(ctx, e.result,
		func(context.Context, struct{}) { e.setState(StateComputed) },
		func(_ context.Context, err error) {
			e.setState(StateFailed)
			if e.result.IsFailure() {
				s.logger.Error("task compute failed", "seq", e.seq, "result", e.result.Id(), "error", err)
			}
		},
		func(context.Context, error) { e.setState(StateFailed) })

	s.complete(e)
}

func (s *Sequencer) cancelQueued(ctx context.Context, e *entry) {
	err := ctx.Err()
	if err == nil {
		err = ErrAborted
	}
	s.settleCancelled(e, err)
}

func (s *Sequencer) settleCancelled(e *entry, err error) {
	e.result = rop.Cancel[struct{}](err)
	e.setState(StateFailed)
	s.complete(e)
}

// complete files e into the ordering buffer and runs a drain pass.
func (s *Sequencer) complete(e *entry) {
	s.mu.Lock()
	s.pending[e.seq] = e
	s.completed++
	if e.result.IsFailure() || e.result.IsCancel() {
		s.abortLocked(e.seq, e.result.Err())
	}
	s.mu.Unlock()

	s.drain()
}

func (s *Sequencer) abortLocked(seq uint64, err error) {
	if !s.failed || seq < s.failSeq {
		s.failed = true
		s.failSeq = seq
	}
	if s.cause == nil {
		s.cause = err
		close(s.aborted)
	}
}

// drain settles buffered entries from nextToFinalize onward until it hits a
// gap or a fatal entry. Only one caller drains at a time; a caller that finds
// a drain in progress leaves its entry for the active drainer, which
// re-checks the buffer after every settle.
func (s *Sequencer) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for !s.halted {
		e, ok := s.pending[s.nextToFinalize]
		if !ok {
			break
		}

		s.mu.Unlock()
		err := s.settle(e)
		s.mu.Lock()

		if err != nil {
			s.halted = true
			s.haltErr = err
			s.abortLocked(e.seq, err)
			s.logger.Error("sequencer halted", "seq", e.seq, "error", err)
			break
		}

		delete(s.pending, e.seq)
		s.nextToFinalize++
		if e.State() == StateFinalized {
			s.stats.Finalized++
		} else {
			s.stats.Skipped++
		}
		<-s.slots
	}

	s.draining = false
	s.settled.Broadcast()
	s.mu.Unlock()
}

// settle finalizes or skips e. A non-nil error halts the pipeline.
func (s *Sequencer) settle(e *entry) error {
	return solo.Finally(s.ctx, e.result, solo.FinallyHandlers[struct{}, error]{
		OnSuccess: func(ctx context.Context, _ struct{}) error {
			return s.finalize(ctx, e)
		},
		OnSkip: func(_ context.Context, err error) error {
			s.skip(e, err)
			return nil
		},
		OnError: func(_ context.Context, err error) error {
			return fmt.Errorf("task %d: compute: %w", e.seq, err)
		},
		OnCancel: func(_ context.Context, err error) error {
			return fmt.Errorf("task %d: cancelled: %w", e.seq, err)
		},
	})
}

func (s *Sequencer) finalize(ctx context.Context, e *entry) error {
	ctx = context.WithoutCancel(ctx)

	res := solo.Try(ctx, solo.Succeed(e.task), func(ctx context.Context, t Task) (struct{}, error) {
		return struct{}{}, t.Finalize(ctx)
	})

	fail := func(_ context.Context, err error) error {
		e.setState(StateFailed)
		return fmt.Errorf("task %d: finalize: %w", e.seq, err)
	}

	return solo.Finally(ctx, res, solo.FinallyHandlers[struct{}, error]{
		OnSuccess: func(context.Context, struct{}) error {
			e.setState(StateFinalized)
			// time spent computed but waiting for earlier tasks
			s.logger.Debug("task finalized", "seq", e.seq, "waited", time.Since(e.result.CreatedAt()))
			return nil
		},
		OnSkip: func(_ context.Context, err error) error {
			s.skip(e, err)
			return nil
		},
		OnError:  fail,
		OnCancel: fail,
	})
}

func (s *Sequencer) skip(e *entry, err error) {
	e.setState(StateFailed)
	s.logger.Warn("task skipped", "seq", e.seq, "error", err)
}
