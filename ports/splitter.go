package ports

import (
	"math/rand"

	"crosspred/domain/cohort"
)

// Splitter is a cross-validation scheme producing train/test folds for n samples
type Splitter interface {
	// Split partitions indices 0..n-1. The random source is explicit so the
	// same seed always yields the same folds.
	Split(n int, rng *rand.Rand) ([]cohort.Fold, error)

	// NumFolds is the number of folds Split produces
	NumFolds() int
}
