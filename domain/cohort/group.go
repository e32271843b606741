package cohort

import (
	"fmt"

	"crosspred/domain/core"

	"gonum.org/v1/gonum/mat"
)

// SampleGroup pairs a feature matrix (N x F) with a target matrix (N x T).
// Row i of X always corresponds to row i of Y. Operations return new groups
// and never modify the receiver.
type SampleGroup struct {
	X *mat.Dense
	Y *mat.Dense
}

// NewSampleGroup validates row alignment between features and targets
func NewSampleGroup(X, Y *mat.Dense) (SampleGroup, error) {
	if X == nil || Y == nil {
		return SampleGroup{}, fmt.Errorf("%w: nil features or targets", core.ErrEmptyInput)
	}
	xr, _ := X.Dims()
	yr, _ := Y.Dims()
	if xr != yr {
		return SampleGroup{}, core.NewShapeError("target rows", xr, yr)
	}
	return SampleGroup{X: X, Y: Y}, nil
}

// NewVectorGroup builds a single-target group from row-major features and a target vector
func NewVectorGroup(features [][]float64, targets []float64) (SampleGroup, error) {
	if len(features) == 0 {
		return SampleGroup{}, fmt.Errorf("%w: no samples", core.ErrEmptyInput)
	}
	if len(features) != len(targets) {
		return SampleGroup{}, core.NewShapeError("target rows", len(features), len(targets))
	}
	X, err := DenseFromRows(features)
	if err != nil {
		return SampleGroup{}, err
	}
	y := make([]float64, len(targets))
	copy(y, targets)
	return NewSampleGroup(X, mat.NewDense(len(y), 1, y))
}

// DenseFromRows copies ragged-checked rows into a dense matrix
func DenseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no rows", core.ErrEmptyInput)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", core.ErrShapeMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Len returns the number of samples
func (g SampleGroup) Len() int {
	if g.X == nil {
		return 0
	}
	r, _ := g.X.Dims()
	return r
}

// NumTargets returns the number of target columns
func (g SampleGroup) NumTargets() int {
	if g.Y == nil {
		return 0
	}
	_, c := g.Y.Dims()
	return c
}

// SelectRows returns a new group containing the given rows, in order.
// An empty index set yields a group with zero rows.
func (g SampleGroup) SelectRows(idx []int) (SampleGroup, error) {
	n := g.Len()
	for _, i := range idx {
		if i < 0 || i >= n {
			return SampleGroup{}, fmt.Errorf("%w: row %d of %d", core.ErrInvalidIndex, i, n)
		}
	}
	return SampleGroup{X: selectRows(g.X, idx), Y: selectRows(g.Y, idx)}, nil
}

// WithTargets returns a group sharing X with targets replaced by Y
func (g SampleGroup) WithTargets(Y *mat.Dense) (SampleGroup, error) {
	return NewSampleGroup(g.X, Y)
}

// TargetColumn returns a single-target group for column j
func (g SampleGroup) TargetColumn(j int) (SampleGroup, error) {
	if j < 0 || j >= g.NumTargets() {
		return SampleGroup{}, fmt.Errorf("%w: target column %d of %d", core.ErrInvalidIndex, j, g.NumTargets())
	}
	col := mat.Col(nil, j, g.Y)
	return SampleGroup{X: g.X, Y: mat.NewDense(len(col), 1, col)}, nil
}

// Targets returns a copy of the target vector of a single-target group
func (g SampleGroup) Targets() ([]float64, error) {
	if g.NumTargets() != 1 {
		return nil, core.NewShapeError("target columns", 1, g.NumTargets())
	}
	return mat.Col(nil, 0, g.Y), nil
}

// selectRows copies rows of m into a new matrix. Zero rows produce an empty
// matrix value rather than a panic from mat.NewDense.
func selectRows(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	if len(idx) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(idx), c, nil)
	for r, i := range idx {
		out.SetRow(r, m.RawRowView(i))
	}
	return out
}
