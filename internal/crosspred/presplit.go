// Package crosspred trains a model on one age bin and scores it on all
// three, then tests those scores against label-shuffled nulls.
package crosspred

import (
	"fmt"
	"math/rand"

	"crosspred/domain/cohort"
	"crosspred/ports"
)

// Presplit computes one fold list per group. The lists are computed once and
// reused for the true score, every permutation and every rotation.
func Presplit(groups []cohort.SampleGroup, splitter ports.Splitter, rng *rand.Rand) ([]cohort.FoldList, error) {
	out := make([]cohort.FoldList, len(groups))
	for g, group := range groups {
		folds, err := splitter.Split(group.Len(), rng)
		if err != nil {
			return nil, fmt.Errorf("presplit group %d: %w", g, err)
		}
		out[g] = folds
	}
	return out, nil
}
