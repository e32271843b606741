package rng

import (
	"context"
	"math/rand"
)

// Adapter implements ports.RNGPort with math/rand sources derived from seeds
type Adapter struct{}

// New creates a seeded RNG adapter
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(mix(seed, name))), nil
}

// Stream derives the seed from stageName and key so every unit of work
// (one permutation repetition, one presplit) gets its own reproducible source
func (a *Adapter) Stream(ctx context.Context, stageName, key string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := mix(baseSeed, stageName)
	seed = mix(seed, key)
	return rand.New(rand.NewSource(seed)), nil
}

func mix(seed int64, s string) int64 {
	if s == "" {
		return seed
	}
	return seed*1000003 ^ int64(hashString(s))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
