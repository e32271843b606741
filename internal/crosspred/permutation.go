package crosspred

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"crosspred/domain/cohort"
	"crosspred/domain/scoring"
	"crosspred/ports"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const permutationStage = "permutation"

// Options configures a permutation run
type Options struct {
	NumPermutations int
	Seed            int64
	Workers         int
	RNG             ports.RNGPort
	Key             string // distinguishes rotations and targets within a run
}

// PermutationResult is the outcome of one permutation test over three groups.
// Null[g] has one entry per completed repetition. Partial is set when the
// context was cancelled before all repetitions finished.
type PermutationResult struct {
	TrueScores [3]scoring.Score
	Null       [3][]float64
	PValues    [3]float64
	Completed  int
	Requested  int
	Partial    bool
}

// PValue is the right-tailed empirical p-value with +1 smoothing
func PValue(trueScore float64, null []float64) float64 {
	count := 0
	for _, s := range null {
		if s >= trueScore {
			count++
		}
	}
	return float64(count+1) / float64(len(null)+1)
}

// PermutationTest scores the groups unmodified, then NumPermutations more
// times with each group's targets shuffled independently. Every repetition
// draws its shuffles from its own stream keyed by the repetition index, so
// the null does not depend on Workers.
func PermutationTest(ctx context.Context, proto ports.Estimator, groups [3]cohort.SampleGroup, folds [3]cohort.FoldList, scorer scoring.Scorer, opts Options) (*PermutationResult, error) {
	if opts.NumPermutations < 0 {
		return nil, fmt.Errorf("negative permutation count %d", opts.NumPermutations)
	}
	if err := ValidateFolds(groups, folds); err != nil {
		return nil, err
	}

	trueScores, err := score(ctx, proto, groups, folds, scorer)
	if err != nil {
		return nil, fmt.Errorf("true score: %w", err)
	}

	n := opts.NumPermutations
	null := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	done := make([]bool, n)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for r := 0; r < n; r++ {
		if ctx.Err() != nil || egCtx.Err() != nil {
			break
		}
		r := r
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rng, err := opts.stream(egCtx, r)
			if err != nil {
				return ignoreCancel(ctx, err)
			}
			var shuffled [3]cohort.SampleGroup
			for g := 0; g < 3; g++ {
				if shuffled[g], err = shuffleTargets(groups[g], rng); err != nil {
					return err
				}
			}
			scores, err := score(egCtx, proto, shuffled, folds, scorer)
			if err != nil {
				return ignoreCancel(ctx, fmt.Errorf("permutation %d: %w", r, err))
			}
			for g := 0; g < 3; g++ {
				null[g][r] = scores[g].Primary()
			}
			done[r] = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &PermutationResult{TrueScores: trueScores, Requested: n}
	for g := 0; g < 3; g++ {
		res.Null[g] = make([]float64, 0, n)
	}
	for r := 0; r < n; r++ {
		if !done[r] {
			continue
		}
		res.Completed++
		for g := 0; g < 3; g++ {
			res.Null[g] = append(res.Null[g], null[g][r])
		}
	}
	res.Partial = res.Completed < n
	if res.Partial && res.Completed == 0 {
		return nil, ctx.Err()
	}
	for g := 0; g < 3; g++ {
		res.PValues[g] = PValue(trueScores[g].Primary(), res.Null[g])
	}
	return res, nil
}

// RotationResult is the permutation test for one designated trainer
type RotationResult struct {
	Labels [3]string
	*PermutationResult
}

// RunRotations runs PermutationTest once per rotation. Rotation k uses a
// distinct stream key so its shuffles are independent of other rotations.
func RunRotations(ctx context.Context, proto ports.Estimator, rot Rotations, scorer scoring.Scorer, opts Options) ([]RotationResult, error) {
	out := make([]RotationResult, 0, rot.Len())
	for k := 0; k < rot.Len(); k++ {
		t, err := rot.Triple(k)
		if err != nil {
			return out, err
		}
		o := opts
		o.Key = opts.Key + "/rotation-" + strconv.Itoa(k)
		res, err := PermutationTest(ctx, proto, t.Groups, t.Folds, scorer, o)
		if err != nil {
			return out, fmt.Errorf("train on %s: %w", t.Labels[0], err)
		}
		out = append(out, RotationResult{Labels: t.Labels, PermutationResult: res})
		if res.Partial {
			break
		}
	}
	return out, nil
}

func (o Options) stream(ctx context.Context, r int) (*rand.Rand, error) {
	key := o.Key + "/" + strconv.Itoa(r)
	if o.RNG == nil {
		return rand.New(rand.NewSource(o.Seed ^ int64(hashKey(key)))), nil
	}
	return o.RNG.Stream(ctx, permutationStage, key, o.Seed)
}

// shuffleTargets permutes target rows with Fisher-Yates and leaves features
// in place. Shuffling never mixes rows across groups.
func shuffleTargets(g cohort.SampleGroup, rng *rand.Rand) (cohort.SampleGroup, error) {
	n := g.Len()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	_, t := g.Y.Dims()
	Y := mat.NewDense(n, t, nil)
	for i, p := range perm {
		Y.SetRow(i, g.Y.RawRowView(p))
	}
	return g.WithTargets(Y)
}

// ignoreCancel drops errors caused by the caller cancelling ctx so completed
// repetitions can still be reported
func ignoreCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func hashKey(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
