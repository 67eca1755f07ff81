package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type vectorCodec struct{}

func (vectorCodec) writeText(w *bufio.Writer, key string, v []float64) error {
	if _, err := fmt.Fprintf(w, "%s  [", key); err != nil {
		return err
	}
	for _, x := range v {
		w.WriteByte(' ')
		w.WriteString(formatFloat(x))
	}
	_, err := w.WriteString(" ]\n")
	return err
}

func (vectorCodec) readText(r *bufio.Reader) (string, []float64, error) {
	line, err := nextLine(r)
	if err != nil {
		return "", nil, err
	}

	fields := strings.Fields(line)
	if len(fields) < 3 || fields[1] != "[" || fields[len(fields)-1] != "]" {
		return "", nil, fmt.Errorf("%w: expected \"<key> [ ... ]\", got %q", ErrFormat, strings.TrimSpace(line))
	}

	v, err := parseFloats(fields[2 : len(fields)-1])
	if err != nil {
		return "", nil, fmt.Errorf("vector %q: %w", fields[0], err)
	}
	return fields[0], v, nil
}

func (vectorCodec) shape(v []float64) (int, int, []float64) {
	return 1, len(v), v
}

func (vectorCodec) fromShape(rows, cols int, data []float64) ([]float64, error) {
	if rows > 1 {
		return nil, fmt.Errorf("%w: expected a vector, got %dx%d matrix", ErrFormat, rows, cols)
	}
	return data, nil
}

// OpenVectorReader opens a sequential reader of vectors.
func OpenVectorReader(spec string) (*SequentialReader[[]float64], error) {
	return openReader[[]float64](spec, vectorCodec{})
}

func NewVectorReader(r io.Reader) *SequentialReader[[]float64] {
	return newSequentialReader[[]float64](r, nil, vectorCodec{})
}

// OpenVectorWriter opens a writer of vectors.
func OpenVectorWriter(spec string) (*Writer[[]float64], error) {
	return openWriter[[]float64](spec, vectorCodec{})
}

func NewVectorWriter(w io.Writer, text bool) *Writer[[]float64] {
	return newWriter[[]float64](w, nil, text, vectorCodec{})
}
