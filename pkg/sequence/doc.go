// Package sequence runs a stream of tasks with parallel compute and strictly
// ordered finalize.
//
// Each Task has two phases. Compute runs on one of a fixed number of worker
// lines, in any order and concurrently with other tasks' Compute. Finalize
// runs exactly once per successfully computed task, one at a time, in the
// order the tasks were passed to Submit. At most MaxInFlight tasks exist
// between Submit and the end of their Finalize; Submit blocks while that
// limit is reached.
//
// A Compute error wrapping ErrSkip marks the task as failed but skippable:
// it is counted and its slot in the order is stepped over. Any other Compute
// or Finalize error, or a panic in either phase, aborts the pipeline. Tasks
// ordered before the failing one are still finalized; nothing after it is.
package sequence
