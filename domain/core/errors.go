package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrEmptyInput       = errors.New("empty input")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrInvalidBinCount  = errors.New("invalid bin count")
	ErrInvalidIndex     = errors.New("index out of range")
	ErrInvalidAge       = errors.New("age must be a finite number")
	ErrZeroVector       = errors.New("vector has zero norm")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Cross-validation errors
	ErrEmptyFold         = errors.New("empty test partition")
	ErrOverlappingFold   = errors.New("train and test partitions overlap")
	ErrFoldCountMismatch = errors.New("fold lists differ in length")
	ErrGroupCount        = errors.New("cross-prediction requires exactly three groups")

	// Scoring errors
	ErrDegenerateTarget = errors.New("degenerate target: correlation undefined")
	ErrMixedScoreKinds  = errors.New("cannot average scalar scores with metric bundles")

	// Model errors
	ErrNotFitted     = errors.New("estimator has not been fitted")
	ErrUnknownModel  = errors.New("unknown model")
	ErrFitFailed     = errors.New("model fit failed")
	ErrUnknownLevel  = errors.New("unknown WISC level")
	ErrUnknownTarget = errors.New("unknown target measure")
	ErrUnknownMetric = errors.New("unknown similarity metric")

	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrResultNotFound = fmt.Errorf("%w: result", ErrNotFound)
)

// Error constructors with context
func NewShapeError(what string, want, got int) error {
	return fmt.Errorf("%w: %s expected %d, got %d", ErrShapeMismatch, what, want, got)
}

func NewEmptyFoldError(group, fold int) error {
	return fmt.Errorf("%w: group %d fold %d", ErrEmptyFold, group, fold)
}

func NewBinCountError(numBins int) error {
	return fmt.Errorf("%w: %d (supported: 2, 3)", ErrInvalidBinCount, numBins)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidBinCount) ||
		errors.Is(err, ErrFoldCountMismatch) ||
		errors.Is(err, ErrGroupCount)
}
