package scoring

import (
	"fmt"

	"crosspred/domain/cohort"
	"crosspred/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Predictor is the part of a fitted model a scorer needs
type Predictor interface {
	Predict(X mat.Matrix) (*mat.Dense, error)
}

// Scorer evaluates a fitted model on one group's held-out rows
type Scorer interface {
	Name() string
	Score(model Predictor, data cohort.SampleGroup) (Score, error)
}

// Unimetric scores with the Pearson correlation only
type Unimetric struct{}

func (Unimetric) Name() string { return "unimetric" }

func (Unimetric) Score(model Predictor, data cohort.SampleGroup) (Score, error) {
	y, yPred, err := predict(model, data)
	if err != nil {
		return nil, err
	}
	r, err := Pearson(y, yPred)
	if err != nil {
		return nil, err
	}
	return Scalar(r), nil
}

// Multimetric scores with correlation, its significance, MSE and R²
type Multimetric struct{}

func (Multimetric) Name() string { return "multimetric" }

func (Multimetric) Score(model Predictor, data cohort.SampleGroup) (Score, error) {
	y, yPred, err := predict(model, data)
	if err != nil {
		return nil, err
	}
	r, err := Pearson(y, yPred)
	if err != nil {
		return nil, err
	}
	mse, err := MeanSquaredError(y, yPred)
	if err != nil {
		return nil, err
	}
	r2, err := RSquared(y, yPred)
	if err != nil {
		return nil, err
	}
	return MetricBundle{
		Correlation:      r,
		Significance:     PearsonPValue(r, len(y)),
		MeanSquaredError: mse,
		RSquared:         r2,
	}, nil
}

// ForName returns the scorer registered under name
func ForName(name string) (Scorer, error) {
	switch name {
	case "", "unimetric":
		return Unimetric{}, nil
	case "multimetric":
		return Multimetric{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// predict runs one prediction pass and reconciles output and targets to 1-D
func predict(model Predictor, data cohort.SampleGroup) ([]float64, []float64, error) {
	if data.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: no rows to score", core.ErrEmptyFold)
	}
	y, err := data.Targets()
	if err != nil {
		return nil, nil, err
	}
	pred, err := model.Predict(data.X)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}
	rows, cols := pred.Dims()
	if cols != 1 {
		return nil, nil, core.NewShapeError("prediction columns", 1, cols)
	}
	if rows != len(y) {
		return nil, nil, core.NewShapeError("prediction rows", len(y), rows)
	}
	return y, mat.Col(nil, 0, pred), nil
}
