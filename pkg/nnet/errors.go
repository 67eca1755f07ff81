package nnet

import "errors"

var (
	ErrBadModel = errors.New("bad model")
	ErrInputDim = errors.New("input dimension mismatch")
)
