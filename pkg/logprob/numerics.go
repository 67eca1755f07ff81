package logprob

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ProbFloor keeps probabilities away from zero before the logarithm.
const ProbFloor = 1e-20

// InversePriors returns the elementwise inverse of priors, which must have
// one strictly positive entry per network output class.
func InversePriors(priors []float64, numPdfs int) ([]float64, error) {
	if len(priors) != numPdfs {
		return nil, fmt.Errorf("%w: %d priors for %d outputs", ErrBadPriors, len(priors), numPdfs)
	}

	inv := make([]float64, len(priors))
	for j, p := range priors {
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: prior %d is %g", ErrBadPriors, j, p)
		}
		inv[j] = math.Pow(p, -1)
	}
	return inv, nil
}

// Normalize converts a frames x classes matrix of network posteriors into
// log-likelihoods in place: every column is divided by its prior, every row
// is renormalized to sum to one, values are floored at ProbFloor and the
// natural log is taken. A row whose prior-scaled sum is not a positive
// finite number is reported to badRow and left unrenormalized. NaN values
// are floored.
func Normalize(m *mat.Dense, invPriors []float64, badRow func(row int, sum float64)) error {
	rows, cols := m.Dims()
	if rows == 0 {
		return nil
	}
	if cols != len(invPriors) {
		return fmt.Errorf("%w: %d columns, %d priors", ErrDimensionMismatch, cols, len(invPriors))
	}

	for i := range rows {
		row := m.RawRowView(i)

		sum := 0.0
		for j := range row {
			row[j] *= invPriors[j]
			sum += row[j]
		}

		if !(sum > 0) || math.IsInf(sum, 0) {
			if badRow != nil {
				badRow(i, sum)
			}
		} else {
			scale := 1 / sum
			for j := range row {
				row[j] *= scale
			}
		}

		for j, v := range row {
			if !(v >= ProbFloor) {
				v = ProbFloor
			}
			row[j] = math.Log(v)
		}
	}
	return nil
}
