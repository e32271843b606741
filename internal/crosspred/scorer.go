package crosspred

import (
	"context"
	"fmt"

	"crosspred/domain/cohort"
	"crosspred/domain/core"
	"crosspred/domain/scoring"
	"crosspred/ports"
)

// ValidateFolds checks that the three fold lists are usable before any fit:
// equal non-zero length, in-range disjoint indices, non-empty test partitions
// and non-empty training partitions for the trainer.
func ValidateFolds(groups [3]cohort.SampleGroup, folds [3]cohort.FoldList) error {
	k := len(folds[0])
	if k == 0 {
		return fmt.Errorf("%w: group 0 has no folds", core.ErrEmptyFold)
	}
	for g := 1; g < 3; g++ {
		if len(folds[g]) != k {
			return fmt.Errorf("%w: group 0 has %d, group %d has %d", core.ErrFoldCountMismatch, k, g, len(folds[g]))
		}
	}
	for g := 0; g < 3; g++ {
		if err := folds[g].Validate(groups[g].Len()); err != nil {
			return fmt.Errorf("group %d: %w", g, err)
		}
		for i, f := range folds[g] {
			if len(f.Test) == 0 {
				return core.NewEmptyFoldError(g, i)
			}
		}
	}
	for i, f := range folds[0] {
		if len(f.Train) == 0 {
			return fmt.Errorf("%w: group 0 fold %d has no training rows", core.ErrEmptyFold, i)
		}
	}
	return nil
}

// Score fits one fresh clone of proto per fold on group 0's training rows and
// scores that same model on every group's test rows for the fold. The result
// holds the per-group mean over folds: index 0 is the in-group score.
func Score(ctx context.Context, proto ports.Estimator, groups [3]cohort.SampleGroup, folds [3]cohort.FoldList, scorer scoring.Scorer) ([3]scoring.Score, error) {
	var out [3]scoring.Score
	if err := ValidateFolds(groups, folds); err != nil {
		return out, err
	}
	return score(ctx, proto, groups, folds, scorer)
}

// score assumes folds were validated
func score(ctx context.Context, proto ports.Estimator, groups [3]cohort.SampleGroup, folds [3]cohort.FoldList, scorer scoring.Scorer) ([3]scoring.Score, error) {
	var out [3]scoring.Score
	k := len(folds[0])
	perGroup := [3][]scoring.Score{
		make([]scoring.Score, 0, k),
		make([]scoring.Score, 0, k),
		make([]scoring.Score, 0, k),
	}

	for i := 0; i < k; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		train, err := groups[0].SelectRows(folds[0][i].Train)
		if err != nil {
			return out, fmt.Errorf("fold %d train rows: %w", i, err)
		}
		model := proto.Clone()
		if err := model.Fit(train.X, train.Y); err != nil {
			return out, fmt.Errorf("fold %d fit: %w", i, err)
		}

		for g := 0; g < 3; g++ {
			test, err := groups[g].SelectRows(folds[g][i].Test)
			if err != nil {
				return out, fmt.Errorf("group %d fold %d test rows: %w", g, i, err)
			}
			s, err := scorer.Score(model, test)
			if err != nil {
				return out, fmt.Errorf("group %d fold %d: %w", g, i, err)
			}
			perGroup[g] = append(perGroup[g], s)
		}
	}

	for g := 0; g < 3; g++ {
		mean, err := scoring.MeanScore(perGroup[g])
		if err != nil {
			return out, fmt.Errorf("group %d: %w", g, err)
		}
		out[g] = mean
	}
	return out, nil
}
