// Package solo contains single-value, synchronous ROP primitives that operate
// on Result[T]. They are the building blocks the sequencer uses to run a
// task phase and to dispatch on its outcome.
//
// Highlights:
// - Succeed/Fail/Skip/Cancel: construct Result[T]
// - Try: call a function (Out, error), converting errors and panics
// - Map: transform successful values
// - DoubleTee: side effects per outcome
// - Finally: reduce to a concrete value via outcome handlers
package solo
