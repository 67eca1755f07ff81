package logprob

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/ib-77/nnlogprob/pkg/sequence"
)

const (
	ExitOK      = 0
	ExitNoItems = 1
	ExitFatal   = -1
)

// FeatureReader yields (key, features) pairs in order, once.
type FeatureReader interface {
	Next() bool
	Key() string
	Value() *mat.Dense
	Err() error
}

// SpeakerVectors looks up the speaker vector for an item key.
type SpeakerVectors interface {
	HasKey(key string) bool
	Value(key string) ([]float64, error)
}

// Summary reports a run.
type Summary struct {
	// Done counts items whose output was written.
	Done int
	// Errors counts items skipped for per-item problems.
	Errors int
	Stats  sequence.Stats
}

type Option func(*options)

type options struct {
	logger *slog.Logger
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run processes every item of feats. When vecs is not nil every item needs a
// speaker vector from it. The returned error is non-nil only for failures
// that abort the run; the summary is valid either way.
func Run(ctx context.Context, cfg Config, net NetEvaluator, priors []float64,
	feats FeatureReader, vecs SpeakerVectors, out MatrixWriter, opts ...Option) (Summary, error) {

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}

	invPriors, err := InversePriors(priors, net.NumPdfs())
	if err != nil {
		return Summary{}, err
	}

	seq, err := sequence.New(ctx, cfg.Sequencer, sequence.WithLogger(o.logger))
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	var runErr error
	for feats.Next() {
		key := feats.Key()

		var spkVec []float64
		if vecs != nil {
			spkVec, err = speakerVector(vecs, key)
			if err != nil {
				sum.Errors++
				o.logger.Error("no speaker vector available", "key", key, "error", err)
				if cfg.MissingSpkVec == AbortMissing {
					runErr = err
					break
				}
				continue
			}
		}

		task := NewTask(net, invPriors, key, feats.Value(), spkVec, out, o.logger)
		if err := seq.Submit(ctx, task); err != nil {
			runErr = err
			break
		}
	}
	if runErr == nil {
		if err := feats.Err(); err != nil {
			runErr = fmt.Errorf("read features: %w", err)
		}
	}

	stats, err := seq.Close()
	if err != nil {
		runErr = err
	}

	sum.Stats = stats
	sum.Done = stats.Finalized
	sum.Errors += stats.Skipped

	if runErr != nil {
		return sum, runErr
	}

	o.logger.Info("finished computing neural net log-probs",
		"run", seq.RunID().String(), "processed", sum.Done, "errors", sum.Errors)
	return sum, nil
}

func speakerVector(vecs SpeakerVectors, key string) ([]float64, error) {
	if !vecs.HasKey(key) {
		return nil, fmt.Errorf("%w for key %s", ErrMissingSpeakerVector, key)
	}
	v, err := vecs.Value(key)
	if err != nil {
		return nil, fmt.Errorf("%w for key %s: %w", ErrMissingSpeakerVector, key, err)
	}
	return v, nil
}

// ExitCode maps a run outcome to a process exit status.
func ExitCode(sum Summary, err error) int {
	switch {
	case err != nil:
		return ExitFatal
	case sum.Done == 0:
		return ExitNoItems
	default:
		return ExitOK
	}
}
