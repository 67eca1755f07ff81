// Package logprob turns network outputs into prior-normalized log
// probabilities.
//
// Run reads feature matrices, computes the network on a sequence.Sequencer
// and writes one log-probability matrix per item in input order. Per-item
// problems (a missing speaker vector) are counted and skipped; a failing
// network computation or write aborts the run.
package logprob
