package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// NewDense is mat.NewDense that also accepts an empty shape, returning a
// zero-sized matrix instead of panicking.
func NewDense(rows, cols int, data []float64) *mat.Dense {
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(rows, cols, data)
}

type matrixCodec struct{}

func (matrixCodec) writeText(w *bufio.Writer, key string, m *mat.Dense) error {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		_, err := fmt.Fprintf(w, "%s  [ ]\n", key)
		return err
	}

	if _, err := fmt.Fprintf(w, "%s  [", key); err != nil {
		return err
	}
	for i := range rows {
		w.WriteString("\n ")
		for _, v := range m.RawRowView(i) {
			w.WriteByte(' ')
			w.WriteString(formatFloat(v))
		}
	}
	_, err := w.WriteString(" ]\n")
	return err
}

func (matrixCodec) readText(r *bufio.Reader) (string, *mat.Dense, error) {
	line, err := nextLine(r)
	if err != nil {
		return "", nil, err
	}

	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] != "[" {
		return "", nil, fmt.Errorf("%w: expected \"<key> [\", got %q", ErrFormat, strings.TrimSpace(line))
	}
	key := fields[0]

	var data []float64
	cols := -1
	rows := 0
	tokens := fields[2:]
	for {
		closed := false
		if n := len(tokens); n > 0 && tokens[n-1] == "]" {
			closed = true
			tokens = tokens[:n-1]
		}

		if len(tokens) > 0 {
			row, err := parseFloats(tokens)
			if err != nil {
				return "", nil, fmt.Errorf("matrix %q: %w", key, err)
			}
			if cols >= 0 && len(row) != cols {
				return "", nil, fmt.Errorf("%w: matrix %q has ragged rows", ErrFormat, key)
			}
			cols = len(row)
			rows++
			data = append(data, row...)
		}
		if closed {
			break
		}

		line, err = nextLine(r)
		if err == io.EOF {
			return "", nil, fmt.Errorf("%w: matrix %q: %w", ErrFormat, key, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return "", nil, err
		}
		tokens = strings.Fields(line)
	}

	if rows == 0 {
		return key, &mat.Dense{}, nil
	}
	return key, mat.NewDense(rows, cols, data), nil
}

func (matrixCodec) shape(m *mat.Dense) (int, int, []float64) {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := range rows {
		data = append(data, m.RawRowView(i)...)
	}
	return rows, cols, data
}

func (matrixCodec) fromShape(rows, cols int, data []float64) (*mat.Dense, error) {
	return NewDense(rows, cols, data), nil
}

// OpenMatrixReader opens a sequential reader of matrices.
func OpenMatrixReader(spec string) (*SequentialReader[*mat.Dense], error) {
	return openReader[*mat.Dense](spec, matrixCodec{})
}

// NewMatrixReader reads matrices from r, detecting the format.
func NewMatrixReader(r io.Reader) *SequentialReader[*mat.Dense] {
	return newSequentialReader[*mat.Dense](r, nil, matrixCodec{})
}

// OpenMatrixWriter opens a writer of matrices.
func OpenMatrixWriter(spec string) (*Writer[*mat.Dense], error) {
	return openWriter[*mat.Dense](spec, matrixCodec{})
}

// NewMatrixWriter writes matrices to w in text or binary form.
func NewMatrixWriter(w io.Writer, text bool) *Writer[*mat.Dense] {
	return newWriter[*mat.Dense](w, nil, text, matrixCodec{})
}
