// Package cv implements the cross-validation schemes used to presplit groups.
package cv

import (
	"fmt"
	"math/rand"
	"sort"

	"crosspred/domain/cohort"
	"crosspred/domain/core"
	"crosspred/ports"
)

// KFold splits n samples into Splits folds; each test set is one fold and the
// test sets partition 0..n-1. The first n%Splits folds get one extra sample.
type KFold struct {
	Splits  int
	Shuffle bool
}

// NumFolds is the number of folds Split produces
func (k KFold) NumFolds() int {
	return k.Splits
}

// Split partitions 0..n-1. rng is required when Shuffle is set.
func (k KFold) Split(n int, rng *rand.Rand) ([]cohort.Fold, error) {
	if k.Splits < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 splits, got %d", k.Splits)
	}
	if n < k.Splits {
		return nil, fmt.Errorf("%w: cannot split %d samples into %d folds", core.ErrInsufficientData, n, k.Splits)
	}

	order := make([]int, n)
	if k.Shuffle {
		if rng == nil {
			return nil, fmt.Errorf("shuffled k-fold needs a random source")
		}
		order = rng.Perm(n)
	} else {
		for i := range order {
			order[i] = i
		}
	}
	return partition(order, k.Splits), nil
}

// RepeatedKFold runs a shuffled KFold Repeats times with successive draws
// from the same random source.
type RepeatedKFold struct {
	Splits  int
	Repeats int
}

// RKF10x10 is 10-fold cross-validation repeated 10 times
func RKF10x10() RepeatedKFold {
	return RepeatedKFold{Splits: 10, Repeats: 10}
}

// RKF5x5 is 5-fold cross-validation repeated 5 times
func RKF5x5() RepeatedKFold {
	return RepeatedKFold{Splits: 5, Repeats: 5}
}

// NumFolds is Splits * Repeats
func (r RepeatedKFold) NumFolds() int {
	return r.Splits * r.Repeats
}

// Split concatenates the folds of every repeat
func (r RepeatedKFold) Split(n int, rng *rand.Rand) ([]cohort.Fold, error) {
	if r.Repeats < 1 {
		return nil, fmt.Errorf("repeated k-fold needs at least 1 repeat, got %d", r.Repeats)
	}
	inner := KFold{Splits: r.Splits, Shuffle: true}
	folds := make([]cohort.Fold, 0, r.NumFolds())
	for i := 0; i < r.Repeats; i++ {
		f, err := inner.Split(n, rng)
		if err != nil {
			return nil, fmt.Errorf("repeat %d: %w", i, err)
		}
		folds = append(folds, f...)
	}
	return folds, nil
}

// New picks KFold for a single repeat and RepeatedKFold otherwise
func New(splits, repeats int) ports.Splitter {
	if repeats <= 1 {
		return KFold{Splits: splits, Shuffle: true}
	}
	return RepeatedKFold{Splits: splits, Repeats: repeats}
}

func partition(order []int, splits int) []cohort.Fold {
	n := len(order)
	size := n / splits
	remainder := n % splits

	folds := make([]cohort.Fold, splits)
	idx := 0
	for i := 0; i < splits; i++ {
		nTest := size
		if i < remainder {
			nTest++
		}
		test := make([]int, nTest)
		copy(test, order[idx:idx+nTest])

		train := make([]int, 0, n-nTest)
		train = append(train, order[:idx]...)
		train = append(train, order[idx+nTest:]...)

		sort.Ints(test)
		sort.Ints(train)
		folds[i] = cohort.Fold{Train: train, Test: test}
		idx += nTest
	}
	return folds
}
