package estimator

import (
	"fmt"

	"crosspred/domain/core"
	"crosspred/ports"
)

// Options carries the hyperparameters for every supported model family
type Options struct {
	RidgeAlpha    float64
	PLSComponents int
}

// DefaultOptions mirrors the defaults used in the research scripts
func DefaultOptions() Options {
	return Options{RidgeAlpha: 1.0, PLSComponents: 2}
}

// New builds an untrained estimator by model name ("ridge", "pls")
func New(name string, opts Options) (ports.Estimator, error) {
	switch name {
	case "ridge":
		return NewRidge(opts.RidgeAlpha), nil
	case "pls":
		return NewPLS(opts.PLSComponents), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownModel, name)
	}
}
