package crosspred

import (
	"fmt"

	"crosspred/domain/cohort"
	"crosspred/domain/core"
)

// Rotations holds the cyclic orderings of a group set. Entry k of every slice
// is the left-rotation by k, so Groups[k][0] is the trainer of rotation k.
type Rotations struct {
	Groups [][]cohort.SampleGroup
	Folds  [][]cohort.FoldList
	Labels [][]string
}

// Triple is one rotation of exactly three groups, trainer first
type Triple struct {
	Groups [3]cohort.SampleGroup
	Folds  [3]cohort.FoldList
	Labels [3]string
}

// Rotate produces every cyclic left-rotation of groups, folds and labels,
// permuted identically so they stay index-aligned
func Rotate(groups []cohort.SampleGroup, folds []cohort.FoldList, labels []string) (Rotations, error) {
	n := len(groups)
	if len(folds) != n {
		return Rotations{}, core.NewShapeError("fold lists", n, len(folds))
	}
	if len(labels) != n {
		return Rotations{}, core.NewShapeError("labels", n, len(labels))
	}

	r := Rotations{
		Groups: make([][]cohort.SampleGroup, n),
		Folds:  make([][]cohort.FoldList, n),
		Labels: make([][]string, n),
	}
	for k := 0; k < n; k++ {
		r.Groups[k] = rotateLeft(groups, k)
		r.Folds[k] = rotateLeft(folds, k)
		r.Labels[k] = rotateLeft(labels, k)
	}
	return r, nil
}

// Len is the number of rotations
func (r Rotations) Len() int { return len(r.Groups) }

// Triple returns rotation k as a three-group unit
func (r Rotations) Triple(k int) (Triple, error) {
	if k < 0 || k >= r.Len() {
		return Triple{}, fmt.Errorf("%w: rotation %d of %d", core.ErrInvalidIndex, k, r.Len())
	}
	if len(r.Groups[k]) != 3 {
		return Triple{}, fmt.Errorf("%w: got %d", core.ErrGroupCount, len(r.Groups[k]))
	}
	var t Triple
	copy(t.Groups[:], r.Groups[k])
	copy(t.Folds[:], r.Folds[k])
	copy(t.Labels[:], r.Labels[k])
	return t, nil
}

func rotateLeft[T any](xs []T, k int) []T {
	n := len(xs)
	out := make([]T, n)
	for i := range xs {
		out[i] = xs[(i+k)%n]
	}
	return out
}
