package logprob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/nnlogprob/pkg/sequence"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"sequencer": {"num_threads": 4},
		"spk_vecs": "ark:vecs.ark",
		"missing_spk_vec": "abort"
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Sequencer.NumThreads)
	assert.Equal(t, "ark:vecs.ark", cfg.SpkVecs)
	assert.Equal(t, AbortMissing, cfg.MissingSpkVec)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestConfig_MergeKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{Utt2Spk: "utt2spk"})

	assert.Equal(t, sequence.DefaultConfig(), cfg.Sequencer)
	assert.Equal(t, SkipMissing, cfg.MissingSpkVec)
	assert.Equal(t, "utt2spk", cfg.Utt2Spk)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown policy", mutate: func(c *Config) { c.MissingSpkVec = "retry" }, wantErr: ErrBadPolicy},
		{name: "zero threads", mutate: func(c *Config) { c.Sequencer.NumThreads = 0 }, wantErr: sequence.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	cfg := DefaultConfig()
	cfg.Utt2Spk = "utt2spk"
	assert.ErrorIs(t, cfg.Validate(), ErrBadConfig)
}
