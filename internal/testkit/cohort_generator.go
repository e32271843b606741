package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"crosspred/domain/cohort"
	"crosspred/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CohortConfig configures the synthetic cohort generator
type CohortConfig struct {
	Subjects   int
	Features   int
	Measures   []string
	MinAge     float64
	MaxAge     float64
	Signal     float64 // weight of the linear FC component in every measure
	Noise      float64
	Population cohort.Population
	Seed       int64
}

// DefaultCohortConfig returns a small cohort spanning all three age bins
func DefaultCohortConfig() CohortConfig {
	return CohortConfig{
		Subjects:   90,
		Features:   10,
		Measures:   []string{"FSIQ", "VCI"},
		MinAge:     6,
		MaxAge:     17,
		Signal:     1,
		Noise:      0.2,
		Population: cohort.PopulationADHD,
		Seed:       42,
	}
}

// CohortGenerator produces reproducible cohorts whose measures are a noisy
// linear function of the FC features
type CohortGenerator struct {
	config CohortConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a generator seeded from the config
func NewCohortGenerator(config CohortConfig) *CohortGenerator {
	return &CohortGenerator{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

// Generate builds the cohort. Ages are spread evenly over [MinAge, MaxAge]
// so each age bin receives subjects.
func (g *CohortGenerator) Generate() *cohort.Cohort {
	cfg := g.config
	c := &cohort.Cohort{
		SubjectIDs: make([]string, cfg.Subjects),
		Features:   make([][]float64, cfg.Subjects),
		Measures:   make(map[string][]float64, len(cfg.Measures)),
		Ages:       make([]float64, cfg.Subjects),
		Sexes:      make([]float64, cfg.Subjects),
		Population: cfg.Population,
	}

	weights := make([][]float64, len(cfg.Measures))
	for m := range cfg.Measures {
		weights[m] = make([]float64, cfg.Features)
		for j := range weights[m] {
			weights[m][j] = g.rng.NormFloat64()
		}
		c.Measures[cfg.Measures[m]] = make([]float64, cfg.Subjects)
	}

	span := cfg.MaxAge - cfg.MinAge
	for i := 0; i < cfg.Subjects; i++ {
		c.SubjectIDs[i] = fmt.Sprintf("SYN%04d", i+1)
		c.Ages[i] = cfg.MinAge + span*float64(i)/math.Max(1, float64(cfg.Subjects-1))
		c.Sexes[i] = float64(g.rng.Intn(2))

		row := make([]float64, cfg.Features)
		for j := range row {
			row[j] = g.rng.NormFloat64()
		}
		c.Features[i] = row

		for m, name := range cfg.Measures {
			var v float64
			for j, x := range row {
				v += weights[m][j] * x
			}
			c.Measures[name][i] = 100 + 10*(cfg.Signal*v+cfg.Noise*g.rng.NormFloat64())
		}
	}
	return c
}

// FakeLike returns data with the shape of X and Y drawn from normal
// distributions matching each matrix's overall mean and standard deviation
func FakeLike(X, Y mat.Matrix, rng *rand.Rand) (*mat.Dense, *mat.Dense, error) {
	fx, err := fakeLike(X, rng)
	if err != nil {
		return nil, nil, err
	}
	fy, err := fakeLike(Y, rng)
	if err != nil {
		return nil, nil, err
	}
	return fx, fy, nil
}

func fakeLike(m mat.Matrix, rng *rand.Rand) (*mat.Dense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty matrix", core.ErrEmptyInput)
	}
	values := mat.DenseCopyOf(m).RawMatrix().Data
	mean, variance := stat.PopMeanVariance(values, nil)
	std := math.Sqrt(variance)

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, _ float64) float64 {
		return mean + std*rng.NormFloat64()
	}, out)
	return out, nil
}
