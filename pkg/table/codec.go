package table

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

var magic = []byte("NLPB")

const (
	fieldKey  protowire.Number = 1
	fieldRows protowire.Number = 2
	fieldCols protowire.Number = 3
	fieldData protowire.Number = 4

	maxRecordSize = 1 << 30
)

// codec converts one value type to and from the archive formats.
type codec[T any] interface {
	writeText(w *bufio.Writer, key string, v T) error
	// readText returns io.EOF only when the stream ends between records.
	readText(r *bufio.Reader) (string, T, error)
	shape(v T) (rows, cols int, data []float64)
	fromShape(rows, cols int, data []float64) (T, error)
}

func appendRecord(b []byte, key string, rows, cols int, data []float64) []byte {
	var msg []byte
	msg = protowire.AppendTag(msg, fieldKey, protowire.BytesType)
	msg = protowire.AppendString(msg, key)
	msg = protowire.AppendTag(msg, fieldRows, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(rows))
	msg = protowire.AppendTag(msg, fieldCols, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(cols))

	packed := make([]byte, 0, 8*len(data))
	for _, v := range data {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	msg = protowire.AppendTag(msg, fieldData, protowire.BytesType)
	msg = protowire.AppendBytes(msg, packed)

	b = protowire.AppendVarint(b, uint64(len(msg)))
	return append(b, msg...)
}

// readRecord reads one length-prefixed record. It returns io.EOF only at a
// record boundary.
func readRecord(r *bufio.Reader) (key string, rows, cols int, data []float64, err error) {
	size, err := binary.ReadUvarint(r)
	if errors.Is(err, io.EOF) {
		return "", 0, 0, nil, io.EOF
	}
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("%w: record length: %w", ErrFormat, err)
	}
	if size > maxRecordSize {
		return "", 0, 0, nil, fmt.Errorf("%w: record of %d bytes", ErrFormat, size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", 0, 0, nil, fmt.Errorf("%w: truncated record: %w", ErrFormat, io.ErrUnexpectedEOF)
	}

	var haveKey bool
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return "", 0, 0, nil, fmt.Errorf("%w: %w", ErrFormat, protowire.ParseError(n))
		}
		buf = buf[n:]

		switch {
		case num == fieldKey && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(buf)
			key, haveKey = string(v), true
		case num == fieldRows && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(buf)
			if n >= 0 && v > math.MaxInt32 {
				return "", 0, 0, nil, fmt.Errorf("%w: %d rows", ErrFormat, v)
			}
			rows = int(v)
		case num == fieldCols && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(buf)
			if n >= 0 && v > math.MaxInt32 {
				return "", 0, 0, nil, fmt.Errorf("%w: %d cols", ErrFormat, v)
			}
			cols = int(v)
		case num == fieldData && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(buf)
			if n >= 0 {
				data, err = unpackDoubles(v)
				if err != nil {
					return "", 0, 0, nil, err
				}
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, buf)
		}
		if n < 0 {
			return "", 0, 0, nil, fmt.Errorf("%w: %w", ErrFormat, protowire.ParseError(n))
		}
		buf = buf[n:]
	}

	if !haveKey {
		return "", 0, 0, nil, fmt.Errorf("%w: record without key", ErrFormat)
	}
	if uint64(rows)*uint64(cols) != uint64(len(data)) {
		return "", 0, 0, nil, fmt.Errorf("%w: record %q has %dx%d shape but %d values", ErrFormat, key, rows, cols, len(data))
	}
	return key, rows, cols, data, nil
}

func unpackDoubles(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: packed doubles of %d bytes", ErrFormat, len(b))
	}
	out := make([]float64, 0, len(b)/8)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrFormat, protowire.ParseError(n))
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}

// nextLine returns the next non-blank line, or io.EOF.
func nextLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func parseFloats(tokens []string) ([]float64, error) {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, " \t\n\r")
}
