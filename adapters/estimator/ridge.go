package estimator

import (
	"fmt"

	"crosspred/domain/core"
	"crosspred/ports"

	"gonum.org/v1/gonum/mat"
)

// singular values below this are treated as zero when Alpha is 0
const svdTolerance = 1e-12

// Ridge is L2-regularised least squares solved through a thin SVD of the
// centered design matrix. Multiple targets are fitted jointly.
type Ridge struct {
	Alpha        float64
	FitIntercept bool

	coef      *mat.Dense // F x T
	intercept []float64  // T
}

// NewRidge creates an untrained ridge model with an intercept
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha, FitIntercept: true}
}

func (r *Ridge) Name() string { return "ridge" }

// Clone returns an untrained copy with the same hyperparameters
func (r *Ridge) Clone() ports.Estimator {
	return &Ridge{Alpha: r.Alpha, FitIntercept: r.FitIntercept}
}

// Fit solves coef = V diag(s/(s²+α)) Uᵀ Y on centered data
func (r *Ridge) Fit(X, Y mat.Matrix) error {
	n, f := X.Dims()
	yn, t := Y.Dims()
	if n != yn {
		return core.NewShapeError("target rows", n, yn)
	}
	if n == 0 || f == 0 {
		return fmt.Errorf("%w: empty design matrix", core.ErrEmptyInput)
	}
	if r.Alpha < 0 {
		return fmt.Errorf("%w: negative alpha %g", core.ErrFitFailed, r.Alpha)
	}

	xMeans, yMeans := make([]float64, f), make([]float64, t)
	if r.FitIntercept {
		xMeans, _ = columnStats(X)
		yMeans, _ = columnStats(Y)
	}
	Xc := standardize(X, xMeans, nil)
	Yc := standardize(Y, yMeans, nil)

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return fmt.Errorf("%w: SVD factorization failed", core.ErrFitFailed)
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	s := svd.Values(nil)

	d := make([]float64, len(s))
	for i, sv := range s {
		if sv < svdTolerance {
			continue
		}
		d[i] = sv / (sv*sv + r.Alpha)
	}

	coef := mat.NewDense(f, t, nil)
	coef.Product(&V, mat.NewDiagDense(len(d), d), U.T(), Yc)

	// intercept = yMean - xMean · coef
	intercept := make([]float64, t)
	xm := mat.NewVecDense(f, xMeans)
	for j := 0; j < t; j++ {
		intercept[j] = yMeans[j] - mat.Dot(xm, coef.ColView(j))
	}

	r.coef = coef
	r.intercept = intercept
	return nil
}

// Predict returns X·coef + intercept
func (r *Ridge) Predict(X mat.Matrix) (*mat.Dense, error) {
	return linearPredict(X, r.coef, r.intercept)
}

// Coefficients returns the fitted F x T weights
func (r *Ridge) Coefficients() (*mat.Dense, error) {
	if r.coef == nil {
		return nil, core.ErrNotFitted
	}
	return mat.DenseCopyOf(r.coef), nil
}

func linearPredict(X mat.Matrix, coef *mat.Dense, intercept []float64) (*mat.Dense, error) {
	if coef == nil {
		return nil, core.ErrNotFitted
	}
	n, f := X.Dims()
	cf, t := coef.Dims()
	if f != cf {
		return nil, core.NewShapeError("feature columns", cf, f)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no rows to predict", core.ErrEmptyInput)
	}
	out := mat.NewDense(n, t, nil)
	out.Mul(X, coef)
	out.Apply(func(_, j int, v float64) float64 {
		return v + intercept[j]
	}, out)
	return out, nil
}
