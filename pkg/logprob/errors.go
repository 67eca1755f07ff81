package logprob

import "errors"

var (
	ErrMissingSpeakerVector = errors.New("no speaker vector available")
	ErrDimensionMismatch    = errors.New("dimension mismatch")
	ErrBadPriors            = errors.New("priors in neural network not set up")
	ErrBadPolicy            = errors.New("unknown missing speaker vector policy")
	ErrBadConfig            = errors.New("invalid run config")
)
