package cohort

import (
	"fmt"

	"crosspred/domain/core"

	"gonum.org/v1/gonum/mat"
)

// LabeledGroup is a sample group with its human-readable bin label
type LabeledGroup struct {
	Label string
	Group SampleGroup
}

// Population labels a cohort by diagnosis
type Population string

const (
	PopulationADHD    Population = "adhd"
	PopulationHealthy Population = "healthy"
)

// Cohort is the assembled dataset: one FC feature vector per subject plus
// cognitive measures and demographics, all aligned by subject order.
type Cohort struct {
	SubjectIDs []string
	Features   [][]float64
	Measures   map[string][]float64
	Ages       []float64
	Sexes      []float64
	Population Population
}

// Len returns the number of subjects
func (c *Cohort) Len() int {
	return len(c.SubjectIDs)
}

// Validate checks that every per-subject slice is aligned with SubjectIDs
func (c *Cohort) Validate() error {
	n := c.Len()
	if n == 0 {
		return fmt.Errorf("%w: cohort has no subjects", core.ErrEmptyInput)
	}
	if len(c.Features) != n {
		return core.NewShapeError("feature rows", n, len(c.Features))
	}
	if c.Ages != nil && len(c.Ages) != n {
		return core.NewShapeError("ages", n, len(c.Ages))
	}
	if c.Sexes != nil && len(c.Sexes) != n {
		return core.NewShapeError("sexes", n, len(c.Sexes))
	}
	for name, values := range c.Measures {
		if len(values) != n {
			return fmt.Errorf("measure %s: %w", name, core.NewShapeError("values", n, len(values)))
		}
	}
	return nil
}

// Group returns the sample group for a single measure
func (c *Cohort) Group(measure string) (SampleGroup, error) {
	y, ok := c.Measures[measure]
	if !ok {
		return SampleGroup{}, fmt.Errorf("%w: %s", core.ErrUnknownTarget, measure)
	}
	return NewVectorGroup(c.Features, y)
}

// MultiTargetGroup returns a group whose target matrix holds the given measures as columns
func (c *Cohort) MultiTargetGroup(measures []string) (SampleGroup, error) {
	n := c.Len()
	if len(measures) == 0 {
		return SampleGroup{}, fmt.Errorf("%w: no measures", core.ErrEmptyInput)
	}
	X, err := DenseFromRows(c.Features)
	if err != nil {
		return SampleGroup{}, err
	}
	Y := mat.NewDense(n, len(measures), nil)
	for j, m := range measures {
		y, ok := c.Measures[m]
		if !ok {
			return SampleGroup{}, fmt.Errorf("%w: %s", core.ErrUnknownTarget, m)
		}
		Y.SetCol(j, y)
	}
	return NewSampleGroup(X, Y)
}
