package result

import (
	"github.com/montanaflynn/stats"
)

// NullSummary describes the shape of a permutation null distribution
type NullSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Median       float64 `json:"median"`
	Percentile95 float64 `json:"percentile_95"`
	Percentile99 float64 `json:"percentile_99"`
}

// Summarize computes the null summary
func Summarize(scores []float64) (NullSummary, error) {
	var s NullSummary
	var err error
	if s.Mean, err = stats.Mean(scores); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviationSample(scores); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(scores); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(scores); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(scores); err != nil {
		return s, err
	}
	if s.Percentile95, err = stats.Percentile(scores, 95); err != nil {
		return s, err
	}
	if s.Percentile99, err = stats.Percentile(scores, 99); err != nil {
		return s, err
	}
	return s, nil
}
