package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerOptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, 4, GetWorkerMaxCount(ctx, 4))
	assert.Equal(t, 2, GetWorkerMaxCount(WithWorkerOptions(ctx, 2), 4))
	assert.Equal(t, 4, GetWorkerMaxCount(WithWorkerOptions(ctx, 0), 4))
}

func TestInFlightOptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, 8, GetInFlightMaxCount(ctx, 8))
	assert.Equal(t, 3, GetInFlightMaxCount(WithInFlightOptions(ctx, 3), 8))
	assert.Equal(t, 8, GetInFlightMaxCount(WithWorkerOptions(ctx, 3), 8))
}

func TestProcessOptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.False(t, IsComputeRemainingEnabled(ctx, false))
	assert.True(t, IsComputeRemainingEnabled(WithProcessOptions(ctx, true), false))
	assert.False(t, IsComputeRemainingEnabled(WithProcessOptions(ctx, false), true))
}
