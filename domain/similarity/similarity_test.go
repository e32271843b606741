package similarity

import (
	"errors"
	"math"
	"testing"

	"crosspred/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTopK(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		k        int
		expected []int
	}{
		{"top two", []float64{0.1, 0.9, 0.4, 0.7}, 2, []int{1, 3}},
		{"all", []float64{3, 1, 2}, 3, []int{0, 2, 1}},
		{"none", []float64{3, 1, 2}, 0, []int{}},
		{"negative values", []float64{-5, -1, -3}, 1, []int{1}},
		{"ties keep order", []float64{2, 5, 5, 1}, 2, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TopK(tt.values, tt.k)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := TopK([]float64{1, 2}, 3)
	assert.True(t, errors.Is(err, core.ErrInvalidIndex))
}

func TestNormalize(t *testing.T) {
	u, err := Normalize([]float64{3, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, u, 1e-12)

	_, err = Normalize([]float64{0, 0})
	assert.True(t, errors.Is(err, core.ErrZeroVector))
	_, err = Normalize(nil)
	assert.True(t, errors.Is(err, core.ErrEmptyInput))
}

func TestPairwise(t *testing.T) {
	tests := []struct {
		name      string
		a, b      []float64
		cosine    float64
		euclidean float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1, 0},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 5}, 0, math.Sqrt2},
		{"opposite", []float64{1, -1}, []float64{-2, 2}, -1, 2},
		{"three-four-five", []float64{3, 4}, []float64{4, 3}, 0.96, math.Sqrt(0.08)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cos, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.cosine, cos, 1e-12)

			d, err := NormEuclidean(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.euclidean, d, 1e-12)
		})
	}

	_, err := Cosine([]float64{1, 2}, []float64{1})
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
	_, err = NormEuclidean([]float64{1, 2}, []float64{0, 0})
	assert.True(t, errors.Is(err, core.ErrZeroVector))
}

func TestCompareAgeGroups(t *testing.T) {
	vectors := [][]float64{
		{1, 0},
		{1, 0},
		{0, 1},
		{-1, 0},
	}

	m, err := CompareAgeGroups(vectors, Cosine)
	require.NoError(t, err)
	expected := mat.NewDense(4, 4, []float64{
		0, 1, 0, -1,
		1, 0, 0, -1,
		0, 0, 0, 0,
		-1, -1, 0, 0,
	})
	assert.True(t, mat.EqualApprox(expected, m, 1e-12), "got %v", mat.Formatted(m))
	assert.True(t, mat.Equal(m, m.T()))

	d, err := CompareAgeGroups(vectors, NormEuclidean)
	require.NoError(t, err)
	assert.InDelta(t, 0, d.At(0, 1), 1e-12)
	assert.InDelta(t, math.Sqrt2, d.At(2, 0), 1e-12)
	assert.InDelta(t, 2, d.At(3, 1), 1e-12)
	for i := 0; i < NumGroups; i++ {
		assert.Zero(t, d.At(i, i))
	}
}

func TestCompareAgeGroupsErrors(t *testing.T) {
	_, err := CompareAgeGroups([][]float64{{1}, {1}, {1}}, Cosine)
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))

	_, err = CompareAgeGroups([][]float64{{1, 2}, {1, 2}, {1}, {1, 2}}, Cosine)
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))

	_, err = CompareAgeGroups([][]float64{{1}, {0}, {1}, {1}}, Cosine)
	assert.True(t, errors.Is(err, core.ErrZeroVector))
}

func TestProducts(t *testing.T) {
	p, err := Products([][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}})
	require.NoError(t, err)
	require.Len(t, p, 6)
	assert.Equal(t, []float64{3, 8}, p[0])
	assert.Equal(t, []float64{7, 16}, p[2])
	assert.Equal(t, []float64{35, 48}, p[5])
}

func TestForName(t *testing.T) {
	for _, name := range []string{"", "cosine", "euclidean"} {
		fn, err := ForName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
	}
	_, err := ForName("manhattan")
	assert.True(t, errors.Is(err, core.ErrUnknownMetric))
}
