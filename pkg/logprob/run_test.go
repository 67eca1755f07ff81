package logprob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ib-77/nnlogprob/pkg/sequence"
	"github.com/ib-77/nnlogprob/pkg/table"
)

// passthrough treats features as posteriors. Keys listed in delay sleep that
// long, keys in fail return an error.
type passthrough struct {
	pdfs  int
	delay map[string]time.Duration
	fail  map[string]bool
}

func (p passthrough) NumPdfs() int { return p.pdfs }

func (p passthrough) Compute(feats *mat.Dense, spkVec []float64) (*mat.Dense, error) {
	key := fmt.Sprint(feats.At(0, 0))
	time.Sleep(p.delay[key])
	if p.fail[key] {
		return nil, errors.New("network exploded")
	}
	out := mat.DenseCopyOf(feats)
	if len(spkVec) > 0 {
		out.Set(0, 1, out.At(0, 1)+spkVec[0])
	}
	return out, nil
}

type item struct {
	key   string
	feats *mat.Dense
}

type sliceReader struct {
	items []item
	pos   int
	err   error
}

func (r *sliceReader) Next() bool {
	if r.pos >= len(r.items) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceReader) Key() string       { return r.items[r.pos-1].key }
func (r *sliceReader) Value() *mat.Dense { return r.items[r.pos-1].feats }
func (r *sliceReader) Err() error        { return r.err }

type memWriter struct {
	keys   []string
	values map[string]*mat.Dense
	failOn string
}

func (w *memWriter) Write(key string, m *mat.Dense) error {
	if key == w.failOn {
		return errors.New("disk full")
	}
	if w.values == nil {
		w.values = make(map[string]*mat.Dense)
	}
	w.keys = append(w.keys, key)
	w.values[key] = m
	return nil
}

// items builds n two-class items "u0".."u<n-1>" whose first value encodes the
// index so the fake network can find its key.
func items(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{key: fmt.Sprintf("u%d", i), feats: mat.NewDense(1, 2, []float64{float64(i), 1})}
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testConfig(threads int) Config {
	cfg := DefaultConfig()
	cfg.Sequencer = sequence.Config{NumThreads: threads}
	return cfg
}

func TestRun_WritesInInputOrder(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const n = 40
	net := passthrough{pdfs: 2, delay: map[string]time.Duration{}}
	for i := range n {
		net.delay[fmt.Sprint(i)] = time.Duration(rand.Intn(3000)) * time.Microsecond
	}
	w := &memWriter{}

	sum, err := Run(ctx, testConfig(6), net, []float64{0.5, 0.5}, &sliceReader{items: items(n)}, nil, w,
		WithLogger(quietLogger()))
	require.NoError(t, err)

	want := make([]string, n)
	for i := range want {
		want[i] = fmt.Sprintf("u%d", i)
	}
	assert.Equal(t, want, w.keys)
	assert.Equal(t, n, sum.Done)
	assert.Zero(t, sum.Errors)
	assert.Equal(t, ExitOK, ExitCode(sum, err))

	// u3 has posteriors (3, 1) -> (0.75, 0.25) with flat priors
	got := w.values["u3"]
	assert.InDelta(t, math.Log(0.75), got.At(0, 0), 1e-12)
	assert.InDelta(t, math.Log(0.25), got.At(0, 1), 1e-12)
}

func TestRun_MissingSpeakerVectorIsSkipped(t *testing.T) {
	t.Parallel()

	vecs := table.NewRandomAccessReader(map[string][]float64{
		"u0": {1},
		"u2": {1},
	}, nil)
	w := &memWriter{}

	sum, err := Run(context.Background(), testConfig(2), passthrough{pdfs: 2}, []float64{0.5, 0.5},
		&sliceReader{items: items(3)}, vecs, w, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, []string{"u0", "u2"}, w.keys)
	assert.Equal(t, 2, sum.Done)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 2, sum.Stats.Submitted)
	assert.Equal(t, ExitOK, ExitCode(sum, err))

	// u0: (0, 1+1) -> the speaker vector reached the network
	assert.InDelta(t, 0.0, w.values["u0"].At(0, 1), 1e-12)
}

func TestRun_MissingSpeakerVectorAborts(t *testing.T) {
	t.Parallel()

	vecs := table.NewRandomAccessReader(map[string][]float64{"u0": {1}}, nil)
	cfg := testConfig(2)
	cfg.MissingSpkVec = AbortMissing
	w := &memWriter{}

	sum, err := Run(context.Background(), cfg, passthrough{pdfs: 2}, []float64{0.5, 0.5},
		&sliceReader{items: items(3)}, vecs, w, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrMissingSpeakerVector)

	assert.Equal(t, []string{"u0"}, w.keys)
	assert.Equal(t, 1, sum.Done)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, ExitFatal, ExitCode(sum, err))
}

func TestRun_ZeroItems(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	sum, err := Run(context.Background(), testConfig(1), passthrough{pdfs: 2}, []float64{0.5, 0.5},
		&sliceReader{}, nil, &memWriter{}, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)

	assert.Zero(t, sum.Done)
	assert.Equal(t, ExitNoItems, ExitCode(sum, err))
	assert.Contains(t, logs.String(), "finished computing neural net log-probs")
	assert.Contains(t, logs.String(), "processed=0")
	assert.Regexp(t, `run=[0-9a-f-]{36} `, logs.String())
}

func TestRun_ComputeFailureIsFatal(t *testing.T) {
	t.Parallel()

	net := passthrough{
		pdfs:  2,
		fail:  map[string]bool{"2": true},
		delay: map[string]time.Duration{"2": 20 * time.Millisecond},
	}
	w := &memWriter{}

	sum, err := Run(context.Background(), testConfig(1), net, []float64{0.5, 0.5},
		&sliceReader{items: items(5)}, nil, w, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network exploded")

	assert.Equal(t, []string{"u0", "u1"}, w.keys)
	assert.Equal(t, 2, sum.Done)
	assert.Equal(t, ExitFatal, ExitCode(sum, err))
}

func TestRun_WriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	w := &memWriter{failOn: "u1"}
	sum, err := Run(context.Background(), testConfig(2), passthrough{pdfs: 2}, []float64{0.5, 0.5},
		&sliceReader{items: items(4)}, nil, w, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []string{"u0"}, w.keys)
	assert.Equal(t, 1, sum.Done)
}

func TestRun_ReadFailureIsFatal(t *testing.T) {
	t.Parallel()

	r := &sliceReader{items: items(2), err: table.ErrFormat}
	w := &memWriter{}
	sum, err := Run(context.Background(), testConfig(2), passthrough{pdfs: 2}, []float64{0.5, 0.5},
		r, nil, w, WithLogger(quietLogger()))
	require.ErrorIs(t, err, table.ErrFormat)

	// items read before the error are still written
	assert.Equal(t, []string{"u0", "u1"}, w.keys)
	assert.Equal(t, ExitFatal, ExitCode(sum, err))
}

func TestRun_BadPriors(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	_, err := Run(context.Background(), testConfig(1), passthrough{pdfs: 3}, []float64{0.5, 0.5},
		&sliceReader{items: items(1)}, nil, w, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrBadPriors)
	assert.Empty(t, w.keys)
}

func TestRun_WarnsOnBadProbabilitySum(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	w := &memWriter{}
	reader := &sliceReader{items: []item{
		{key: "zero", feats: mat.NewDense(2, 2, []float64{0, 0, 0.5, 0.5})},
	}}

	sum, err := Run(context.Background(), testConfig(1), passthrough{pdfs: 2}, []float64{0.5, 0.5},
		reader, nil, w, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Done)

	out := logs.String()
	assert.Contains(t, out, "bad sum of probabilities")
	assert.Contains(t, out, "key=zero")
	assert.Contains(t, out, "row=0")

	floor := math.Log(ProbFloor)
	assert.Equal(t, []float64{floor, floor}, w.values["zero"].RawRowView(0))
	assert.InDelta(t, math.Log(0.5), w.values["zero"].At(1, 0), 1e-12)
}

func TestTask_ComputeChecksOutputWidth(t *testing.T) {
	t.Parallel()

	task := NewTask(passthrough{pdfs: 2}, []float64{1, 1, 1}, "u0",
		mat.NewDense(1, 2, []float64{0, 1}), nil, &memWriter{}, nil)
	err := task.Compute(context.Background())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, "u0", task.Key())
}

func TestTask_FinalizeCountsBadRows(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	task := NewTask(passthrough{pdfs: 2}, []float64{1, 1}, "u0",
		mat.NewDense(3, 2, []float64{0, 0, 1, 1, 0, 0}), nil, w, quietLogger())

	require.NoError(t, task.Compute(context.Background()))
	require.NoError(t, task.Finalize(context.Background()))
	assert.Equal(t, 2, task.BadRows())
	assert.Equal(t, []string{"u0"}, w.keys)
}

func TestTask_ComputeHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewTask(passthrough{pdfs: 2}, []float64{1, 1}, "u0",
		mat.NewDense(1, 2, []float64{0, 1}), nil, &memWriter{}, nil)
	assert.ErrorIs(t, task.Compute(ctx), context.Canceled)
}
