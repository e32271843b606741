package scoring

import (
	"fmt"

	"crosspred/domain/core"
)

// Kind tags which case of the Score variant a value holds
type Kind int

const (
	KindScalar Kind = iota
	KindBundle
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindBundle:
		return "bundle"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Score is the result of scoring a fitted model on one group's test rows.
// It is a closed sum type: Scalar or MetricBundle.
type Score interface {
	Kind() Kind
	// Primary is the value significance is computed from (the correlation).
	Primary() float64
	isScore()
}

// Scalar is a bare Pearson correlation
type Scalar float64

func (Scalar) Kind() Kind         { return KindScalar }
func (s Scalar) Primary() float64 { return float64(s) }
func (Scalar) isScore()           {}

// MetricBundle carries all metrics computed from one prediction pass
type MetricBundle struct {
	Correlation      float64 `json:"r"`
	Significance     float64 `json:"p_value"`
	MeanSquaredError float64 `json:"mse"`
	RSquared         float64 `json:"r2"`
}

func (MetricBundle) Kind() Kind         { return KindBundle }
func (b MetricBundle) Primary() float64 { return b.Correlation }
func (MetricBundle) isScore()           {}

// MeanScore averages scores field by field. All scores must share one kind.
func MeanScore(scores []Score) (Score, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores to average", core.ErrEmptyInput)
	}
	kind := scores[0].Kind()
	n := float64(len(scores))

	switch kind {
	case KindScalar:
		var sum float64
		for _, s := range scores {
			v, ok := s.(Scalar)
			if !ok {
				return nil, core.ErrMixedScoreKinds
			}
			sum += float64(v)
		}
		return Scalar(sum / n), nil
	case KindBundle:
		var acc MetricBundle
		for _, s := range scores {
			b, ok := s.(MetricBundle)
			if !ok {
				return nil, core.ErrMixedScoreKinds
			}
			acc.Correlation += b.Correlation
			acc.Significance += b.Significance
			acc.MeanSquaredError += b.MeanSquaredError
			acc.RSquared += b.RSquared
		}
		acc.Correlation /= n
		acc.Significance /= n
		acc.MeanSquaredError /= n
		acc.RSquared /= n
		return acc, nil
	default:
		return nil, fmt.Errorf("unknown score kind %s", kind)
	}
}
