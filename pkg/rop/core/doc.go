// Package core contains the plumbing shared by the sequencer: worker and
// in-flight configuration carried through a context, and the locomotive
// loop that each worker runs.
package core
