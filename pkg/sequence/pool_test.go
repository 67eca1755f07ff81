package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_SingleWorkerIsFIFO(t *testing.T) {
	t.Parallel()

	var got []int
	p := NewWorkerPool(context.Background(), 1, 10, func(ctx context.Context, item int) {
		got = append(got, item)
	}, nil)

	for i := range 10 {
		require.NoError(t, p.Submit(context.Background(), i))
	}
	p.Close()

	assert.Equal(t, seqRange(10), got)
}

func TestWorkerPool_RunsEveryItem(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]bool)
	p := NewWorkerPool(context.Background(), 4, 0, func(ctx context.Context, item int) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen[item] = true
		mu.Unlock()
	}, nil)
	assert.Equal(t, 4, p.Workers())

	for i := range 40 {
		require.NoError(t, p.Submit(context.Background(), i))
	}
	p.Close()

	assert.Len(t, seen, 40)
}

func TestWorkerPool_CancelHandsBackQueuedItems(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	gate := make(chan struct{})
	started := make(chan struct{})

	var mu sync.Mutex
	var ran, cancelled []int

	p := NewWorkerPool(ctx, 1, 5, func(ctx context.Context, item int) {
		if item == 0 {
			close(started)
			<-gate
		}
		mu.Lock()
		ran = append(ran, item)
		mu.Unlock()
	}, func(ctx context.Context, item int) {
		mu.Lock()
		cancelled = append(cancelled, item)
		mu.Unlock()
	})

	for i := range 4 {
		require.NoError(t, p.Submit(context.Background(), i))
	}
	<-started
	cancel()
	close(gate)
	p.Close()

	assert.Equal(t, []int{0}, ran)
	assert.ElementsMatch(t, []int{1, 2, 3}, cancelled)
	assert.ErrorIs(t, p.Submit(context.Background(), 9), ErrClosed)
}

func TestWorkerPool_DefaultsToOneWorker(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(context.Background(), 0, -1, func(context.Context, int) {}, nil)
	assert.Equal(t, 1, p.Workers())
	p.Close()
}
