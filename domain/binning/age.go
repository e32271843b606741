// Package binning partitions a cohort into disjoint age ranges.
//
// The thresholds are fixed: three bins split at 9 and 12 years, two bins
// split at 10 years. Upper bounds are inclusive.
package binning

import (
	"fmt"
	"math"

	"crosspred/domain/cohort"
	"crosspred/domain/core"
)

const (
	// ThreeBinLow and ThreeBinHigh bound the middle bin in 3-bin mode: (9, 12].
	ThreeBinLow  = 9.0
	ThreeBinHigh = 12.0
	// TwoBinSplit separates the two bins in 2-bin mode: <= 10 and > 10.
	TwoBinSplit = 10.0

	LabelAll = "All"
)

// BinLabel returns the label of bin i (zero-based): "Bin 1", "Bin 2", ...
func BinLabel(i int) string {
	return fmt.Sprintf("Bin %d", i+1)
}

// Labels returns the labels BinData produces for the given mode, in order
func Labels(numBins int, includeAll bool) []string {
	var labels []string
	if includeAll {
		labels = append(labels, LabelAll)
	}
	for i := 0; i < numBins; i++ {
		labels = append(labels, BinLabel(i))
	}
	return labels
}

// BinIndices assigns every sample index to exactly one age bin.
// Bins may be empty. Unsupported bin counts and NaN or infinite ages are rejected.
func BinIndices(ages []float64, numBins int) ([][]int, error) {
	if len(ages) == 0 {
		return nil, fmt.Errorf("%w: no ages", core.ErrEmptyInput)
	}

	var assign func(age float64) int
	switch numBins {
	case 3:
		assign = func(age float64) int {
			switch {
			case age <= ThreeBinLow:
				return 0
			case age <= ThreeBinHigh:
				return 1
			default:
				return 2
			}
		}
	case 2:
		assign = func(age float64) int {
			if age <= TwoBinSplit {
				return 0
			}
			return 1
		}
	default:
		return nil, core.NewBinCountError(numBins)
	}

	for i, age := range ages {
		if math.IsNaN(age) || math.IsInf(age, 0) {
			return nil, fmt.Errorf("%w: row %d has age %v", core.ErrInvalidAge, i, age)
		}
	}

	bins := make([][]int, numBins)
	for i := range bins {
		bins[i] = []int{}
	}
	for i, age := range ages {
		b := assign(age)
		bins[b] = append(bins[b], i)
	}
	return bins, nil
}

// BinByAge splits a group into per-bin groups. Works the same for single and
// multi-target groups since rows are selected from X and Y together.
func BinByAge(group cohort.SampleGroup, ages []float64, numBins int) ([]cohort.SampleGroup, error) {
	if len(ages) != group.Len() {
		return nil, core.NewShapeError("ages", group.Len(), len(ages))
	}
	indices, err := BinIndices(ages, numBins)
	if err != nil {
		return nil, err
	}

	groups := make([]cohort.SampleGroup, len(indices))
	for i, idx := range indices {
		g, err := group.SelectRows(idx)
		if err != nil {
			return nil, fmt.Errorf("bin %d: %w", i+1, err)
		}
		groups[i] = g
	}
	return groups, nil
}

// BinData is the caller-facing entry point. Without usable ages the whole
// group comes back as a single "All" bin; otherwise the per-bin groups are
// returned, optionally preceded by the unbinned data.
func BinData(group cohort.SampleGroup, ages []float64, includeAll bool, numBins int) ([]cohort.LabeledGroup, error) {
	all := cohort.LabeledGroup{Label: LabelAll, Group: group}
	if !hasAges(ages) {
		return []cohort.LabeledGroup{all}, nil
	}

	bins, err := BinByAge(group, ages, numBins)
	if err != nil {
		return nil, err
	}

	var out []cohort.LabeledGroup
	if includeAll {
		out = append(out, all)
	}
	for i, g := range bins {
		out = append(out, cohort.LabeledGroup{Label: BinLabel(i), Group: g})
	}
	return out, nil
}

func hasAges(ages []float64) bool {
	for _, a := range ages {
		if a != 0 {
			return true
		}
	}
	return false
}
