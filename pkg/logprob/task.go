package logprob

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/ib-77/nnlogprob/pkg/sequence"
)

// NetEvaluator computes network posteriors for one item. Implementations
// must be safe for concurrent use.
type NetEvaluator interface {
	Compute(feats *mat.Dense, spkVec []float64) (*mat.Dense, error)
	NumPdfs() int
}

// MatrixWriter receives finished items. It is only called from Finalize, so
// it need not be safe for concurrent use.
type MatrixWriter interface {
	Write(key string, m *mat.Dense) error
}

// Task computes one item's log-probabilities. The network runs in Compute,
// normalization and the write happen in Finalize.
type Task struct {
	net       NetEvaluator
	invPriors []float64
	key       string
	feats     *mat.Dense
	spkVec    []float64
	writer    MatrixWriter
	logger    *slog.Logger

	probs   *mat.Dense
	badRows int
}

var _ sequence.Task = (*Task)(nil)

// NewTask builds a task. net and invPriors are shared read-only between tasks.
func NewTask(net NetEvaluator, invPriors []float64, key string, feats *mat.Dense,
	spkVec []float64, writer MatrixWriter, logger *slog.Logger) *Task {

	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		net:       net,
		invPriors: invPriors,
		key:       key,
		feats:     feats,
		spkVec:    spkVec,
		writer:    writer,
		logger:    logger,
	}
}

func (t *Task) Key() string {
	return t.key
}

// BadRows is the number of rows whose probabilities did not sum to a
// positive value. It is set by Finalize.
func (t *Task) BadRows() int {
	return t.badRows
}

func (t *Task) Compute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probs, err := t.net.Compute(t.feats, t.spkVec)
	if err != nil {
		return fmt.Errorf("utterance %s: %w", t.key, err)
	}
	if rows, cols := probs.Dims(); rows > 0 && cols != len(t.invPriors) {
		return fmt.Errorf("utterance %s: %w: network gave %d outputs, have %d priors",
			t.key, ErrDimensionMismatch, cols, len(t.invPriors))
	}

	t.probs = probs
	return nil
}

func (t *Task) Finalize(context.Context) error {
	err := Normalize(t.probs, t.invPriors, func(row int, sum float64) {
		t.badRows++
		t.logger.Warn("bad sum of probabilities", "key", t.key, "row", row, "sum", sum)
	})
	if err != nil {
		return fmt.Errorf("utterance %s: %w", t.key, err)
	}

	if err := t.writer.Write(t.key, t.probs); err != nil {
		return fmt.Errorf("write %s: %w", t.key, err)
	}
	t.logger.Debug("wrote log-probs", "key", t.key, "bad_rows", t.BadRows())

	t.feats, t.spkVec = nil, nil
	return nil
}
