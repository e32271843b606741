package estimator

import (
	"fmt"
	"math"

	"crosspred/domain/core"
	"crosspred/ports"

	"gonum.org/v1/gonum/mat"
)

const (
	plsMaxIter   = 500
	plsTolerance = 1e-6
)

// PLS is partial least squares regression fitted with NIPALS and
// regression-mode deflation. X and Y are standardized when Scale is set.
type PLS struct {
	Components int
	Scale      bool

	coef      *mat.Dense
	intercept []float64
}

// NewPLS creates an untrained PLS model with scaling
func NewPLS(components int) *PLS {
	return &PLS{Components: components, Scale: true}
}

func (p *PLS) Name() string { return "pls" }

// Clone returns an untrained copy with the same hyperparameters
func (p *PLS) Clone() ports.Estimator {
	return &PLS{Components: p.Components, Scale: p.Scale}
}

// Fit extracts latent components and folds them into an F x T coefficient matrix
func (p *PLS) Fit(X, Y mat.Matrix) error {
	n, f := X.Dims()
	yn, t := Y.Dims()
	if n != yn {
		return core.NewShapeError("target rows", n, yn)
	}
	if n < 2 || f == 0 {
		return fmt.Errorf("%w: PLS needs at least 2 samples", core.ErrInsufficientData)
	}
	if p.Components < 1 {
		return fmt.Errorf("%w: %d components", core.ErrFitFailed, p.Components)
	}
	if p.Components > f {
		return fmt.Errorf("%w: %d components exceed %d features", core.ErrFitFailed, p.Components, f)
	}

	xMeans, xStds := columnStats(X)
	yMeans, yStds := columnStats(Y)
	if !p.Scale {
		xStds, yStds = ones(f), ones(t)
	}
	for j := range xStds {
		if xStds[j] == 0 {
			xStds[j] = 1
		}
	}
	for j := range yStds {
		if yStds[j] == 0 {
			yStds[j] = 1
		}
	}
	Xk := standardize(X, xMeans, xStds)
	Yk := standardize(Y, yMeans, yStds)

	W := mat.NewDense(f, p.Components, nil)
	P := mat.NewDense(f, p.Components, nil)
	Q := mat.NewDense(t, p.Components, nil)

	extracted := 0
	for k := 0; k < p.Components; k++ {
		w, tScore, ok := nipals(Xk, Yk)
		if !ok {
			break
		}
		tt := mat.Dot(tScore, tScore)

		xLoad := mat.NewVecDense(f, nil)
		xLoad.MulVec(Xk.T(), tScore)
		xLoad.ScaleVec(1/tt, xLoad)

		yLoad := mat.NewVecDense(t, nil)
		yLoad.MulVec(Yk.T(), tScore)
		yLoad.ScaleVec(1/tt, yLoad)

		deflate(Xk, tScore, xLoad)
		deflate(Yk, tScore, yLoad)

		W.SetCol(k, w.RawVector().Data)
		P.SetCol(k, xLoad.RawVector().Data)
		Q.SetCol(k, yLoad.RawVector().Data)
		extracted++
	}
	if extracted == 0 {
		return fmt.Errorf("%w: no PLS component could be extracted", core.ErrFitFailed)
	}
	W = W.Slice(0, f, 0, extracted).(*mat.Dense)
	P = P.Slice(0, f, 0, extracted).(*mat.Dense)
	Q = Q.Slice(0, t, 0, extracted).(*mat.Dense)

	// rotations R = W (PᵀW)⁻¹, scaled coefficients B = R Qᵀ
	var ptw, inv mat.Dense
	ptw.Mul(P.T(), W)
	if err := inv.Inverse(&ptw); err != nil {
		return fmt.Errorf("%w: %v", core.ErrFitFailed, err)
	}
	scaled := mat.NewDense(f, t, nil)
	scaled.Product(W, &inv, Q.T())

	// undo standardization: coef[i][j] = B[i][j] * yStd[j] / xStd[i]
	coef := mat.NewDense(f, t, nil)
	coef.Apply(func(i, j int, v float64) float64 {
		return v * yStds[j] / xStds[i]
	}, scaled)

	intercept := make([]float64, t)
	xm := mat.NewVecDense(f, xMeans)
	for j := 0; j < t; j++ {
		intercept[j] = yMeans[j] - mat.Dot(xm, coef.ColView(j))
	}

	p.coef = coef
	p.intercept = intercept
	return nil
}

// Predict returns X·coef + intercept
func (p *PLS) Predict(X mat.Matrix) (*mat.Dense, error) {
	return linearPredict(X, p.coef, p.intercept)
}

// Coefficients returns the fitted F x T weights
func (p *PLS) Coefficients() (*mat.Dense, error) {
	if p.coef == nil {
		return nil, core.ErrNotFitted
	}
	return mat.DenseCopyOf(p.coef), nil
}

// nipals finds one pair of X weights and X scores. ok is false once the
// residual matrices carry no more signal.
func nipals(X, Y *mat.Dense) (w, t *mat.VecDense, ok bool) {
	n, f := X.Dims()
	_, tc := Y.Dims()

	u := mat.NewVecDense(n, nil)
	start := -1
	for j := 0; j < tc && start < 0; j++ {
		for i := 0; i < n; i++ {
			if math.Abs(Y.At(i, j)) > 1e-12 {
				start = j
				break
			}
		}
	}
	if start < 0 {
		return nil, nil, false
	}
	u.CopyVec(Y.ColView(start))

	w = mat.NewVecDense(f, nil)
	t = mat.NewVecDense(n, nil)
	c := mat.NewVecDense(tc, nil)
	prevW := mat.NewVecDense(f, nil)

	for iter := 0; iter < plsMaxIter; iter++ {
		w.MulVec(X.T(), u)
		norm := mat.Norm(w, 2)
		if norm < 1e-12 {
			return nil, nil, false
		}
		w.ScaleVec(1/norm, w)

		t.MulVec(X, w)
		tt := mat.Dot(t, t)
		if tt < 1e-12 {
			return nil, nil, false
		}

		if tc == 1 {
			break
		}
		c.MulVec(Y.T(), t)
		c.ScaleVec(1/tt, c)
		u.MulVec(Y, c)
		u.ScaleVec(1/mat.Dot(c, c), u)

		var diff mat.VecDense
		diff.SubVec(w, prevW)
		if iter > 0 && mat.Norm(&diff, 2) < plsTolerance {
			break
		}
		prevW.CopyVec(w)
	}
	return w, t, true
}

// deflate subtracts the rank-one approximation t·loadᵀ from m in place
func deflate(m *mat.Dense, t, load *mat.VecDense) {
	r, c := m.Dims()
	outer := mat.NewDense(r, c, nil)
	outer.Outer(1, t, load)
	m.Sub(m, outer)
}
