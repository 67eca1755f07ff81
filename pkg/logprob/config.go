package logprob

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ib-77/nnlogprob/pkg/sequence"
)

// MissingPolicy says what to do with an item whose speaker vector is absent.
type MissingPolicy string

const (
	// SkipMissing counts the item as an error and moves on.
	SkipMissing MissingPolicy = "skip"
	// AbortMissing stops the run after finalizing earlier items.
	AbortMissing MissingPolicy = "abort"
)

// Config holds the run settings that can come from a JSON file.
type Config struct {
	Sequencer     sequence.Config `json:"sequencer"`
	SpkVecs       string          `json:"spk_vecs,omitempty"`
	Utt2Spk       string          `json:"utt2spk,omitempty"`
	MissingSpkVec MissingPolicy   `json:"missing_spk_vec,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Sequencer:     sequence.DefaultConfig(),
		MissingSpkVec: SkipMissing,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Sequencer.Merge(&source.Sequencer)

	if source.SpkVecs != "" {
		c.SpkVecs = source.SpkVecs
	}
	if source.Utt2Spk != "" {
		c.Utt2Spk = source.Utt2Spk
	}
	if source.MissingSpkVec != "" {
		c.MissingSpkVec = source.MissingSpkVec
	}
}

func (c Config) Validate() error {
	if err := c.Sequencer.Validate(); err != nil {
		return err
	}
	switch c.MissingSpkVec {
	case SkipMissing, AbortMissing:
	default:
		return fmt.Errorf("%w: %q", ErrBadPolicy, c.MissingSpkVec)
	}
	if c.Utt2Spk != "" && c.SpkVecs == "" {
		return fmt.Errorf("%w: utt2spk is only meaningful together with spk-vecs", ErrBadConfig)
	}
	return nil
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
