// Package similarity compares weight vectors learned on the unbinned cohort
// and on each age bin.
package similarity

import (
	"fmt"

	"crosspred/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NumGroups is the number of vectors an age comparison takes: All, Bin 1, Bin 2, Bin 3
const NumGroups = 4

// Pairs lists the compared group indices in upper-triangle order
var Pairs = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// Func scores how alike two vectors are
type Func func(a, b []float64) (float64, error)

// ForName resolves "cosine" (the default) or "euclidean"
func ForName(name string) (Func, error) {
	switch name {
	case "", "cosine":
		return Cosine, nil
	case "euclidean":
		return NormEuclidean, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownMetric, name)
	}
}

// Normalize returns v scaled to unit L2 norm
func Normalize(v []float64) ([]float64, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: vector", core.ErrEmptyInput)
	}
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return nil, core.ErrZeroVector
	}
	out := make([]float64, len(v))
	floats.ScaleTo(out, 1/norm, v)
	return out, nil
}

// Cosine is the dot product of the two unit vectors
func Cosine(a, b []float64) (float64, error) {
	ua, ub, err := unitPair(a, b)
	if err != nil {
		return 0, err
	}
	return floats.Dot(ua, ub), nil
}

// NormEuclidean is the L2 distance between the two unit vectors, in [0, 2]
func NormEuclidean(a, b []float64) (float64, error) {
	ua, ub, err := unitPair(a, b)
	if err != nil {
		return 0, err
	}
	return floats.Distance(ua, ub, 2), nil
}

func unitPair(a, b []float64) ([]float64, []float64, error) {
	if len(a) != len(b) {
		return nil, nil, core.NewShapeError("vector length", len(a), len(b))
	}
	ua, err := Normalize(a)
	if err != nil {
		return nil, nil, err
	}
	ub, err := Normalize(b)
	if err != nil {
		return nil, nil, err
	}
	return ua, ub, nil
}

// TopK returns the indices of the k largest values, largest first.
// Ties keep their original order.
func TopK(a []float64, k int) ([]int, error) {
	if k < 0 || k > len(a) {
		return nil, fmt.Errorf("%w: k=%d for %d values", core.ErrInvalidIndex, k, len(a))
	}
	neg := make([]float64, len(a))
	floats.ScaleTo(neg, -1, a)
	inds := make([]int, len(a))
	floats.ArgsortStable(neg, inds)
	return inds[:k], nil
}

// Products returns the element-wise product of every pair, in Pairs order
func Products(vectors [][]float64) ([][]float64, error) {
	if err := checkGroups(vectors); err != nil {
		return nil, err
	}
	out := make([][]float64, len(Pairs))
	for i, p := range Pairs {
		out[i] = make([]float64, len(vectors[p[0]]))
		floats.MulTo(out[i], vectors[p[0]], vectors[p[1]])
	}
	return out, nil
}

// CompareAgeGroups fills a symmetric 4 x 4 matrix with fn over every pair of
// group vectors. The diagonal stays zero.
func CompareAgeGroups(vectors [][]float64, fn Func) (*mat.Dense, error) {
	if err := checkGroups(vectors); err != nil {
		return nil, err
	}
	m := mat.NewDense(NumGroups, NumGroups, nil)
	for _, p := range Pairs {
		v, err := fn(vectors[p[0]], vectors[p[1]])
		if err != nil {
			return nil, fmt.Errorf("groups %d and %d: %w", p[0], p[1], err)
		}
		m.Set(p[0], p[1], v)
		m.Set(p[1], p[0], v)
	}
	return m, nil
}

func checkGroups(vectors [][]float64) error {
	if len(vectors) != NumGroups {
		return core.NewShapeError("group vectors", NumGroups, len(vectors))
	}
	for i, v := range vectors[1:] {
		if len(v) != len(vectors[0]) {
			return fmt.Errorf("group %d: %w", i+1, core.NewShapeError("vector length", len(vectors[0]), len(v)))
		}
	}
	return nil
}
