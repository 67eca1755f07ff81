package table

import "fmt"

// RandomAccessReader looks values up by key. When built with an utt2spk map,
// keys are utterances and are resolved to speakers before the lookup.
type RandomAccessReader[T any] struct {
	values  map[string]T
	utt2spk map[string]string
}

func NewRandomAccessReader[T any](values map[string]T, utt2spk map[string]string) *RandomAccessReader[T] {
	if values == nil {
		values = make(map[string]T)
	}
	return &RandomAccessReader[T]{values: values, utt2spk: utt2spk}
}

// NewMappedVectorReader loads every vector of vecSpec and, if utt2spkSpec is
// not empty, the utterance to speaker map. An empty vecSpec gives a reader
// without keys.
func NewMappedVectorReader(vecSpec, utt2spkSpec string) (*RandomAccessReader[[]float64], error) {
	if vecSpec == "" {
		return NewRandomAccessReader[[]float64](nil, nil), nil
	}

	seq, err := OpenVectorReader(vecSpec)
	if err != nil {
		return nil, err
	}
	defer seq.Close()

	values := make(map[string][]float64)
	for seq.Next() {
		values[seq.Key()] = seq.Value()
	}
	if err := seq.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", vecSpec, err)
	}

	var utt2spk map[string]string
	if utt2spkSpec != "" {
		if utt2spk, err = ReadMap(utt2spkSpec); err != nil {
			return nil, err
		}
	}

	return NewRandomAccessReader(values, utt2spk), nil
}

func (r *RandomAccessReader[T]) resolve(key string) (string, bool) {
	if r.utt2spk == nil {
		return key, true
	}
	spk, ok := r.utt2spk[key]
	return spk, ok
}

func (r *RandomAccessReader[T]) HasKey(key string) bool {
	k, ok := r.resolve(key)
	if !ok {
		return false
	}
	_, ok = r.values[k]
	return ok
}

func (r *RandomAccessReader[T]) Value(key string) (T, error) {
	var zero T
	k, ok := r.resolve(key)
	if !ok {
		return zero, fmt.Errorf("%w: %q not in utt2spk map", ErrKeyNotFound, key)
	}
	v, ok := r.values[k]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrKeyNotFound, k)
	}
	return v, nil
}

func (r *RandomAccessReader[T]) Len() int {
	return len(r.values)
}
