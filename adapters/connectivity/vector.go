// Package connectivity reads per-subject functional connectivity matrices
// and flattens them into feature vectors.
package connectivity

import (
	"fmt"
	"math"

	"crosspred/domain/core"

	"gonum.org/v1/gonum/mat"
)

// PowerNodes is the number of regions in the Power 264-ROI atlas
const PowerNodes = 264

// VectorLen is the length of the strict upper triangle of an n x n matrix
func VectorLen(n int) int {
	return n * (n - 1) / 2
}

// ToVector flattens the strict upper triangle of a square matrix row by row
func ToVector(m mat.Matrix) ([]float64, error) {
	r, c := m.Dims()
	if r != c {
		return nil, core.NewShapeError("square matrix columns", r, c)
	}
	out := make([]float64, 0, VectorLen(r))
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out, nil
}

// ToMatrix rebuilds the symmetric matrix with a zero diagonal from a vector
// produced by ToVector
func ToMatrix(v []float64) (*mat.SymDense, error) {
	n := nodesFor(len(v))
	if n < 0 {
		return nil, fmt.Errorf("%w: %d is not a triangular number", core.ErrShapeMismatch, len(v))
	}
	m := mat.NewSymDense(n, nil)
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, v[k])
			k++
		}
	}
	return m, nil
}

// nodesFor solves n(n-1)/2 = length, returning -1 when there is no solution
func nodesFor(length int) int {
	n := int(math.Round((1 + math.Sqrt(1+8*float64(length))) / 2))
	if VectorLen(n) != length {
		return -1
	}
	return n
}
