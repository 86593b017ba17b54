package errors

import (
	"math"
)

// CheckMatrix checks all values in a matrix for NaN or Inf and reports the first
// offending cell. At most ten offending values are collected for the message.
func CheckMatrix(operation string, matrix interface{ Dims() (int, int); At(int, int) float64 }) error {
	rows, cols := matrix.Dims()
	var unstable []float64
	firstRow, firstCol := -1, -1

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				if firstRow < 0 {
					firstRow, firstCol = i, j
				}
				unstable = append(unstable, v)
				if len(unstable) >= 10 {
					return NewNumericalInstabilityError(operation, unstable, firstRow, firstCol)
				}
			}
		}
	}

	if len(unstable) > 0 {
		return NewNumericalInstabilityError(operation, unstable, firstRow, firstCol)
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, 0, 0)
	}
	return nil
}
