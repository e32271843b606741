package binning

import (
	"fmt"
	"sort"

	"crosspred/domain/cohort"
	"crosspred/domain/core"
)

// BinByFeature sorts rows by an arbitrary per-sample feature and splits the
// sorted rows into numBins contiguous, equal-size bins. The sample count must
// be divisible by numBins.
func BinByFeature(group cohort.SampleGroup, feature []float64, numBins int) ([]cohort.SampleGroup, error) {
	n := group.Len()
	if len(feature) != n {
		return nil, core.NewShapeError("feature values", n, len(feature))
	}
	if numBins <= 0 || n%numBins != 0 {
		return nil, fmt.Errorf("%w: %d samples cannot be split into %d equal bins", core.ErrInvalidBinCount, n, numBins)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return feature[order[a]] < feature[order[b]]
	})

	size := n / numBins
	bins := make([]cohort.SampleGroup, numBins)
	for b := 0; b < numBins; b++ {
		g, err := group.SelectRows(order[b*size : (b+1)*size])
		if err != nil {
			return nil, err
		}
		bins[b] = g
	}
	return bins, nil
}
