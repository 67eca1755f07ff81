package table

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// SequentialReader iterates over a keyed stream once, in stream order.
//
//	for r.Next() {
//		use(r.Key(), r.Value())
//	}
//	if err := r.Err(); err != nil { ... }
type SequentialReader[T any] struct {
	br     *bufio.Reader
	closer io.Closer
	codec  codec[T]
	binary bool
	peeked bool

	key   string
	value T
	err   error
	done  bool
}

func newSequentialReader[T any](r io.Reader, closer io.Closer, c codec[T]) *SequentialReader[T] {
	return &SequentialReader[T]{
		br:     bufio.NewReader(r),
		closer: closer,
		codec:  c,
	}
}

func openReader[T any](spec string, c codec[T]) (*SequentialReader[T], error) {
	s, err := ParseSpecifier(spec)
	if err != nil {
		return nil, err
	}
	if s.Stdio() {
		return newSequentialReader(os.Stdin, nil, c), nil
	}

	f, err := os.Open(s.Target)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", spec, err)
	}
	return newSequentialReader[T](f, f, c), nil
}

// Next advances to the next entry. It returns false at the end of the stream
// or on error; Err distinguishes the two.
func (r *SequentialReader[T]) Next() bool {
	if r.done {
		return false
	}

	if !r.peeked {
		r.peeked = true
		head, _ := r.br.Peek(len(magic))
		if bytes.Equal(head, magic) {
			r.binary = true
			r.br.Discard(len(magic))
		}
	}

	key, value, err := r.read()
	if err != nil {
		r.done = true
		if !errors.Is(err, io.EOF) {
			r.err = err
		}
		var zero T
		r.key, r.value = "", zero
		return false
	}

	r.key, r.value = key, value
	return true
}

func (r *SequentialReader[T]) read() (string, T, error) {
	var zero T
	if !r.binary {
		return r.codec.readText(r.br)
	}

	key, rows, cols, data, err := readRecord(r.br)
	if err != nil {
		return "", zero, err
	}
	v, err := r.codec.fromShape(rows, cols, data)
	if err != nil {
		return "", zero, fmt.Errorf("record %q: %w", key, err)
	}
	return key, v, nil
}

func (r *SequentialReader[T]) Key() string {
	return r.key
}

func (r *SequentialReader[T]) Value() T {
	return r.value
}

func (r *SequentialReader[T]) Err() error {
	return r.err
}

func (r *SequentialReader[T]) Close() error {
	r.done = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
