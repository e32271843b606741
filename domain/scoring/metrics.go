package scoring

import (
	"fmt"
	"math"

	"crosspred/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pearson returns the correlation between observed and predicted values.
// It fails instead of returning NaN when either vector is constant.
func Pearson(y, yPred []float64) (float64, error) {
	if err := checkPair(y, yPred); err != nil {
		return 0, err
	}
	if len(y) < 2 {
		return 0, fmt.Errorf("%w: %d samples", core.ErrDegenerateTarget, len(y))
	}
	if isConstant(y) {
		return 0, fmt.Errorf("%w: observed values have zero variance", core.ErrDegenerateTarget)
	}
	if isConstant(yPred) {
		return 0, fmt.Errorf("%w: predictions have zero variance", core.ErrDegenerateTarget)
	}

	r := stat.Correlation(y, yPred, nil)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: correlation is NaN", core.ErrDegenerateTarget)
	}
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r)), nil
}

// PearsonPValue is the two-sided significance of r for n samples, using the
// Student's t transform with n-2 degrees of freedom.
func PearsonPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - tDist.CDF(math.Abs(t)))
}

// MeanSquaredError returns the mean of squared residuals
func MeanSquaredError(y, yPred []float64) (float64, error) {
	if err := checkPair(y, yPred); err != nil {
		return 0, err
	}
	d := floats.Distance(y, yPred, 2)
	return d * d / float64(len(y)), nil
}

// RSquared returns the coefficient of determination 1 - SSres/SStot
func RSquared(y, yPred []float64) (float64, error) {
	if err := checkPair(y, yPred); err != nil {
		return 0, err
	}
	if isConstant(y) {
		return 0, fmt.Errorf("%w: observed values have zero variance", core.ErrDegenerateTarget)
	}
	return stat.RSquaredFrom(yPred, y, nil), nil
}

func checkPair(y, yPred []float64) error {
	if len(y) == 0 {
		return fmt.Errorf("%w: no samples to score", core.ErrEmptyFold)
	}
	if len(y) != len(yPred) {
		return core.NewShapeError("predictions", len(y), len(yPred))
	}
	return nil
}

func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
