package cv

import (
	"errors"
	"math/rand"
	"testing"

	"crosspred/domain/cohort"
	"crosspred/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPartition checks that the test sets of folds partition 0..n-1 and that
// every fold's train set is the complement of its test set
func assertPartition(t *testing.T, folds []cohort.Fold, n int) {
	t.Helper()
	seen := make([]int, n)
	for i, f := range folds {
		require.NoError(t, f.Validate(n), "fold %d", i)
		assert.Equal(t, n, len(f.Train)+len(f.Test), "fold %d", i)
		for _, idx := range f.Test {
			seen[idx]++
		}
	}
	for idx, c := range seen {
		assert.Equal(t, 1, c, "index %d appears in %d test sets", idx, c)
	}
}

func TestKFoldUnshuffled(t *testing.T) {
	folds, err := KFold{Splits: 3}.Split(7, nil)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	assert.Equal(t, []int{0, 1, 2}, folds[0].Test)
	assert.Equal(t, []int{3, 4}, folds[1].Test)
	assert.Equal(t, []int{5, 6}, folds[2].Test)
	assert.Equal(t, []int{0, 1, 2, 5, 6}, folds[1].Train)
	assertPartition(t, folds, 7)
}

func TestKFoldShuffledDeterministic(t *testing.T) {
	k := KFold{Splits: 10, Shuffle: true}
	a, err := k.Split(30, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := k.Split(30, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assertPartition(t, a, 30)
	for _, f := range a {
		assert.Len(t, f.Test, 3)
	}
}

func TestKFoldErrors(t *testing.T) {
	_, err := KFold{Splits: 1}.Split(10, nil)
	assert.Error(t, err)

	_, err = KFold{Splits: 5}.Split(3, nil)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = KFold{Splits: 2, Shuffle: true}.Split(4, nil)
	assert.Error(t, err)
}

func TestRepeatedKFold(t *testing.T) {
	r := RKF5x5()
	folds, err := r.Split(23, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	require.Len(t, folds, r.NumFolds())

	for rep := 0; rep < r.Repeats; rep++ {
		assertPartition(t, folds[rep*r.Splits:(rep+1)*r.Splits], 23)
	}
	assert.NotEqual(t, folds[0].Test, folds[r.Splits].Test, "repeats draw fresh shuffles")

	assert.Equal(t, 100, RKF10x10().NumFolds())
}

func TestNew(t *testing.T) {
	assert.Equal(t, KFold{Splits: 10, Shuffle: true}, New(10, 1))
	assert.Equal(t, RepeatedKFold{Splits: 5, Repeats: 3}, New(5, 3))
}
