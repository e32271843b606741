package cohort

import (
	"errors"
	"testing"

	"crosspred/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewSampleGroupRowMismatch(t *testing.T) {
	_, err := NewSampleGroup(mat.NewDense(3, 2, nil), mat.NewDense(2, 1, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}

func TestSelectRowsPreservesAlignment(t *testing.T) {
	g, err := NewVectorGroup([][]float64{{0, 0}, {1, 10}, {2, 20}, {3, 30}}, []float64{100, 101, 102, 103})
	require.NoError(t, err)

	sub, err := g.SelectRows([]int{3, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []float64{3, 30}, sub.X.RawRowView(0))
	assert.Equal(t, []float64{1, 10}, sub.X.RawRowView(1))
	y, err := sub.Targets()
	require.NoError(t, err)
	assert.Equal(t, []float64{103, 101}, y)

	// the source group is untouched
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 100.0, g.Y.At(0, 0))
}

func TestSelectRowsOutOfRange(t *testing.T) {
	g, err := NewVectorGroup([][]float64{{1}, {2}}, []float64{1, 2})
	require.NoError(t, err)

	_, err = g.SelectRows([]int{2})
	assert.True(t, errors.Is(err, core.ErrInvalidIndex))
}

func TestSelectRowsEmpty(t *testing.T) {
	g, err := NewVectorGroup([][]float64{{1}, {2}}, []float64{1, 2})
	require.NoError(t, err)

	sub, err := g.SelectRows(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sub.Len())
}

func TestTargetColumnAndTargets(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	Y := mat.NewDense(2, 2, []float64{10, 20, 11, 21})
	g, err := NewSampleGroup(X, Y)
	require.NoError(t, err)

	_, err = g.Targets()
	assert.True(t, errors.Is(err, core.ErrShapeMismatch), "multi-target group has no single target vector")

	col, err := g.TargetColumn(1)
	require.NoError(t, err)
	y, err := col.Targets()
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 21}, y)
}

func TestFoldValidate(t *testing.T) {
	tests := []struct {
		name string
		fold Fold
		err  error
	}{
		{"valid", Fold{Train: []int{0, 1}, Test: []int{2}}, nil},
		{"overlap", Fold{Train: []int{0, 1}, Test: []int{1}}, core.ErrOverlappingFold},
		{"out of range", Fold{Train: []int{0}, Test: []int{5}}, core.ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fold.Validate(3)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestCohortGroup(t *testing.T) {
	c := &Cohort{
		SubjectIDs: []string{"a", "b"},
		Features:   [][]float64{{1, 2}, {3, 4}},
		Measures:   map[string][]float64{"WISC_FSIQ": {90, 110}},
		Ages:       []float64{8, 13},
	}
	require.NoError(t, c.Validate())

	g, err := c.Group("WISC_FSIQ")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	_, err = c.Group("WISC_VCI")
	assert.True(t, errors.Is(err, core.ErrUnknownTarget))

	multi, err := c.MultiTargetGroup([]string{"WISC_FSIQ", "WISC_FSIQ"})
	require.NoError(t, err)
	assert.Equal(t, 2, multi.NumTargets())
}
