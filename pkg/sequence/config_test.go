package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_InFlight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"default", DefaultConfig(), 2},
		{"derived from threads", Config{NumThreads: 4}, 8},
		{"explicit", Config{NumThreads: 4, MaxInFlight: 3}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.InFlight())
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Merge(&Config{MaxInFlight: 5})
	assert.Equal(t, Config{NumThreads: 1, MaxInFlight: 5}, cfg)

	cfg.Merge(&Config{NumThreads: 6})
	assert.Equal(t, Config{NumThreads: 6, MaxInFlight: 5}, cfg)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{NumThreads: 0}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{NumThreads: 1, MaxInFlight: -1}.Validate(), ErrInvalidConfig)
}
