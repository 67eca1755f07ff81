package core

import "context"

type OptionKey string

const (
	ProcessOptionKey  OptionKey = "process_options"
	WorkerOptionKey   OptionKey = "worker_options"
	InFlightOptionKey OptionKey = "in_flight_options"
)

type MaxLimitOption struct {
	Value int
}

type WorkerOptions struct {
	MaxCount MaxLimitOption
}

type InFlightOptions struct {
	MaxCount MaxLimitOption
}

// ProcessOptions controls what happens to work that is still queued once a
// fatal failure is observed.
type ProcessOptions struct {
	// ComputeRemaining keeps running Compute on queued tasks after a fatal
	// failure. Their results are discarded either way.
	ComputeRemaining bool
}

func WithProcessOptions(ctx context.Context, computeRemaining bool) context.Context {
	return context.WithValue(ctx, ProcessOptionKey, ProcessOptions{ComputeRemaining: computeRemaining})
}

func WithWorkerOptions(ctx context.Context, maxWorkers int) context.Context {
	return context.WithValue(ctx, WorkerOptionKey, WorkerOptions{MaxLimitOption{Value: maxWorkers}})
}

func WithInFlightOptions(ctx context.Context, maxInFlight int) context.Context {
	return context.WithValue(ctx, InFlightOptionKey, InFlightOptions{MaxLimitOption{Value: maxInFlight}})
}

// GetWorkerMaxCount returns the worker count stored in ctx, or
// defaultMaxWorkers when none is set or the stored value is not positive.
func GetWorkerMaxCount(ctx context.Context, defaultMaxWorkers int) int {
	options, ok := ctx.Value(WorkerOptionKey).(WorkerOptions)
	if ok && options.MaxCount.Value > 0 {
		return options.MaxCount.Value
	}
	return defaultMaxWorkers
}

func GetInFlightMaxCount(ctx context.Context, defaultMaxInFlight int) int {
	options, ok := ctx.Value(InFlightOptionKey).(InFlightOptions)
	if ok && options.MaxCount.Value > 0 {
		return options.MaxCount.Value
	}
	return defaultMaxInFlight
}

func IsComputeRemainingEnabled(ctx context.Context, defaultComputeRemaining bool) bool {
	options, ok := ctx.Value(ProcessOptionKey).(ProcessOptions)
	if ok {
		return options.ComputeRemaining
	}
	return defaultComputeRemaining
}
