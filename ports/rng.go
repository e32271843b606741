package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream for a stage and key. The stream
	// depends only on its arguments, so a fixed base seed reproduces a run.
	Stream(ctx context.Context, stageName, key string, baseSeed int64) (*rand.Rand, error)
}
