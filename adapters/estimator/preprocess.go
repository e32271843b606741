package estimator

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// columnStats returns per-column means and (population) standard deviations
func columnStats(m mat.Matrix) (means, stds []float64) {
	_, c := m.Dims()
	means = make([]float64, c)
	stds = make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, m)
		mean, variance := stat.PopMeanVariance(col, nil)
		means[j] = mean
		stds[j] = math.Sqrt(variance)
	}
	return means, stds
}

// standardize returns (m - means) / scales column-wise. A nil scales only centers.
// Zero scales are treated as 1 so constant columns stay finite.
func standardize(m mat.Matrix, means, scales []float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		v -= means[j]
		if scales != nil && scales[j] != 0 {
			v /= scales[j]
		}
		return v
	}, m)
	return out
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
