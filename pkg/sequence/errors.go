package sequence

import (
	"errors"

	"github.com/ib-77/nnlogprob/pkg/rop"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("sequencer closed")
	// ErrAborted is returned by Submit once the pipeline has seen a fatal
	// failure. The returned error also wraps the cause.
	ErrAborted = errors.New("sequencer aborted")
	// ErrNilTask is returned by Submit for a nil task.
	ErrNilTask = errors.New("nil task")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid sequencer config")
	// ErrSkip marks a task error as non-fatal.
	ErrSkip = rop.ErrSkip
)

// Skippable wraps err so the failing task is stepped over instead of
// aborting the pipeline.
func Skippable(err error) error {
	return rop.Skippable(err)
}
