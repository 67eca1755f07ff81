package sequence

import "fmt"

const defaultNumThreads = 1

// Config sizes the worker pool and the ordering window.
type Config struct {
	// NumThreads is the number of worker lines running Compute.
	NumThreads int `json:"num_threads,omitempty"`
	// MaxInFlight bounds the tasks between Submit and finished Finalize.
	// Zero means twice NumThreads.
	MaxInFlight int `json:"max_in_flight,omitempty"`
}

func DefaultConfig() Config {
	return Config{NumThreads: defaultNumThreads}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.NumThreads > 0 {
		c.NumThreads = source.NumThreads
	}
	if source.MaxInFlight > 0 {
		c.MaxInFlight = source.MaxInFlight
	}
}

func (c Config) Validate() error {
	if c.NumThreads < 1 {
		return fmt.Errorf("%w: num threads must be positive, got %d", ErrInvalidConfig, c.NumThreads)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("%w: max in flight must not be negative, got %d", ErrInvalidConfig, c.MaxInFlight)
	}
	return nil
}

// InFlight returns the effective in-flight limit.
func (c Config) InFlight() int {
	if c.MaxInFlight > 0 {
		return c.MaxInFlight
	}
	return 2 * c.NumThreads
}
