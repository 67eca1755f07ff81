// Package nnet holds a feed-forward acoustic model and its class priors.
//
// A Model is immutable once loaded and may be shared by any number of
// goroutines calling Compute.
package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

type Activation string

const (
	Linear  Activation = "linear"
	ReLU    Activation = "relu"
	Sigmoid Activation = "sigmoid"
	Tanh    Activation = "tanh"
	Softmax Activation = "softmax"
)

// LayerConfig is the on-disk form of one affine layer. Weights has one row
// per output unit.
type LayerConfig struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation Activation  `json:"activation"`
}

// ModelConfig is the on-disk form of a model.
type ModelConfig struct {
	Priors []float64     `json:"priors"`
	Layers []LayerConfig `json:"layers"`
}

type layer struct {
	weights    *mat.Dense
	bias       []float64
	activation Activation
}

type Model struct {
	layers []layer
	priors []float64
}

// Load reads a JSON model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var cfg ModelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse model file: %w", ErrBadModel, err)
	}
	return New(cfg)
}

// New validates cfg and builds a model from it. The model keeps its own copy
// of the weights.
func New(cfg ModelConfig) (*Model, error) {
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrBadModel)
	}

	m := &Model{priors: append([]float64(nil), cfg.Priors...)}
	prevOut := -1
	for i, lc := range cfg.Layers {
		rows := len(lc.Weights)
		if rows == 0 || len(lc.Weights[0]) == 0 {
			return nil, fmt.Errorf("%w: layer %d has no weights", ErrBadModel, i)
		}
		cols := len(lc.Weights[0])

		data := make([]float64, 0, rows*cols)
		for r, row := range lc.Weights {
			if len(row) != cols {
				return nil, fmt.Errorf("%w: layer %d row %d has %d weights, want %d", ErrBadModel, i, r, len(row), cols)
			}
			data = append(data, row...)
		}
		if len(lc.Bias) != rows {
			return nil, fmt.Errorf("%w: layer %d has %d biases for %d outputs", ErrBadModel, i, len(lc.Bias), rows)
		}
		if prevOut >= 0 && cols != prevOut {
			return nil, fmt.Errorf("%w: layer %d takes %d inputs but layer %d gives %d", ErrBadModel, i, cols, i-1, prevOut)
		}

		act := lc.Activation
		if act == "" {
			act = Linear
		}
		switch act {
		case Linear, ReLU, Sigmoid, Tanh, Softmax:
		default:
			return nil, fmt.Errorf("%w: layer %d has unknown activation %q", ErrBadModel, i, act)
		}

		m.layers = append(m.layers, layer{
			weights:    mat.NewDense(rows, cols, data),
			bias:       append([]float64(nil), lc.Bias...),
			activation: act,
		})
		prevOut = rows
	}

	return m, nil
}

// InputDim is the per-frame input size, features plus speaker vector.
func (m *Model) InputDim() int {
	_, c := m.layers[0].weights.Dims()
	return c
}

// NumPdfs is the number of output classes.
func (m *Model) NumPdfs() int {
	r, _ := m.layers[len(m.layers)-1].weights.Dims()
	return r
}

// Priors returns a copy of the class priors. It is empty when the model was
// stored without them.
func (m *Model) Priors() []float64 {
	return append([]float64(nil), m.priors...)
}

// Compute runs the network over every frame of feats. spkVec, when not
// empty, is appended to each frame. The result has one row per frame and one
// column per class.
func (m *Model) Compute(feats *mat.Dense, spkVec []float64) (*mat.Dense, error) {
	frames, dim := feats.Dims()
	if frames == 0 {
		return &mat.Dense{}, nil
	}
	if dim+len(spkVec) != m.InputDim() {
		return nil, fmt.Errorf("%w: %d features + %d speaker dims, model takes %d",
			ErrInputDim, dim, len(spkVec), m.InputDim())
	}
	x := feats
	if len(spkVec) > 0 {
		x = mat.NewDense(frames, dim+len(spkVec), nil)
		for i := range frames {
			row := x.RawRowView(i)
			copy(row, feats.RawRowView(i))
			copy(row[dim:], spkVec)
		}
	}

	for _, l := range m.layers {
		x = l.forward(x)
	}
	return x, nil
}

func (l layer) forward(x *mat.Dense) *mat.Dense {
	frames, _ := x.Dims()
	out, _ := l.weights.Dims()

	y := mat.NewDense(frames, out, nil)
	y.Mul(x, l.weights.T())

	for i := range frames {
		row := y.RawRowView(i)
		for j := range row {
			row[j] += l.bias[j]
		}
		activate(l.activation, row)
	}
	return y
}

func activate(act Activation, row []float64) {
	switch act {
	case ReLU:
		for j, v := range row {
			row[j] = math.Max(v, 0)
		}
	case Sigmoid:
		for j, v := range row {
			row[j] = 1 / (1 + math.Exp(-v))
		}
	case Tanh:
		for j, v := range row {
			row[j] = math.Tanh(v)
		}
	case Softmax:
		peak := math.Inf(-1)
		for _, v := range row {
			peak = math.Max(peak, v)
		}
		sum := 0.0
		for j, v := range row {
			row[j] = math.Exp(v - peak)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
}
