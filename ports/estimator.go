package ports

import (
	"gonum.org/v1/gonum/mat"
)

// Estimator is a regression model that can be cloned into fresh, untrained
// copies so repeated fits never share state.
type Estimator interface {
	// Name identifies the model family in result records
	Name() string

	// Fit trains on X (N x F) and Y (N x T)
	Fit(X, Y mat.Matrix) error

	// Predict returns an N x T prediction matrix
	Predict(X mat.Matrix) (*mat.Dense, error)

	// Clone returns an independent, untrained estimator with the same hyperparameters
	Clone() Estimator
}

// LinearEstimator exposes the fitted weights of a linear model
type LinearEstimator interface {
	Estimator

	// Coefficients returns the F x T weights of the last fit
	Coefficients() (*mat.Dense, error)
}
