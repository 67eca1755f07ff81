package table

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Writer appends keyed values to an archive. It is not safe for concurrent
// use.
type Writer[T any] struct {
	bw     *bufio.Writer
	closer io.Closer
	codec  codec[T]
	text   bool
	buf    []byte
	err    error
}

func newWriter[T any](w io.Writer, closer io.Closer, text bool, c codec[T]) *Writer[T] {
	wr := &Writer[T]{
		bw:     bufio.NewWriter(w),
		closer: closer,
		codec:  c,
		text:   text,
	}
	if !text {
		_, wr.err = wr.bw.Write(magic)
	}
	return wr
}

func openWriter[T any](spec string, c codec[T]) (*Writer[T], error) {
	s, err := ParseSpecifier(spec)
	if err != nil {
		return nil, err
	}

	if s.Stdio() {
		if !s.Text && isTerminal(os.Stdout) {
			return nil, fmt.Errorf("%s: %w", spec, ErrTerminal)
		}
		return newWriter[T](os.Stdout, nil, s.Text, c), nil
	}

	f, err := os.Create(s.Target)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", spec, err)
	}
	return newWriter[T](f, f, s.Text, c), nil
}

func (w *Writer[T]) Write(key string, v T) error {
	if w.err != nil {
		return w.err
	}
	if !validKey(key) {
		return fmt.Errorf("%w: invalid key %q", ErrFormat, key)
	}

	if w.text {
		w.err = w.codec.writeText(w.bw, key, v)
		return w.err
	}

	rows, cols, data := w.codec.shape(v)
	w.buf = appendRecord(w.buf[:0], key, rows, cols, data)
	_, w.err = w.bw.Write(w.buf)
	return w.err
}

func (w *Writer[T]) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.bw.Flush()
	return w.err
}

func (w *Writer[T]) Close() error {
	err := w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
