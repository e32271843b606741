package cohort

import (
	"fmt"

	"crosspred/domain/core"
)

// Fold is one train/test partition of a group's row indices
type Fold struct {
	Train []int `json:"train"`
	Test  []int `json:"test"`
}

// FoldList is the ordered, reusable sequence of folds for one group
type FoldList []Fold

// Validate checks that indices are in [0, n) and that train and test are disjoint
func (f Fold) Validate(n int) error {
	seen := make(map[int]bool, len(f.Train))
	for _, i := range f.Train {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: train index %d of %d", core.ErrInvalidIndex, i, n)
		}
		seen[i] = true
	}
	for _, i := range f.Test {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: test index %d of %d", core.ErrInvalidIndex, i, n)
		}
		if seen[i] {
			return fmt.Errorf("%w: index %d", core.ErrOverlappingFold, i)
		}
	}
	return nil
}

// Validate checks every fold of the list against a group of n samples
func (fl FoldList) Validate(n int) error {
	for i, f := range fl {
		if err := f.Validate(n); err != nil {
			return fmt.Errorf("fold %d: %w", i, err)
		}
	}
	return nil
}
