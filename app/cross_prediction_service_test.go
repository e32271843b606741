package app

import (
	"context"
	"sync/atomic"
	"testing"

	"crosspred/adapters/cv"
	"crosspred/adapters/estimator"
	"crosspred/domain/result"
	"crosspred/internal"
	"crosspred/internal/errors"
	"crosspred/internal/testkit"
	"crosspred/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func ridgeFactory(name string) (ports.Estimator, error) {
	return estimator.New(name, estimator.DefaultOptions())
}

func newService(kit *testkit.TestKit, cfg testkit.CohortConfig, factory ModelFactory) *CrossPredictionService {
	return NewCrossPredictionService(kit.CohortLoader(cfg), kit.ResultRepository(), kit.RNGAdapter(), factory, quiet)
}

func baseRequest() StudyRequest {
	return StudyRequest{
		Measures:        []string{"FSIQ", "VCI"},
		Models:          []string{"ridge"},
		Splitter:        cv.KFold{Splits: 5, Shuffle: true},
		NumPermutations: 10,
		Seed:            42,
		Workers:         2,
	}
}

func TestRunProducesNineEntriesPerModelAndMeasure(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := newService(kit, testkit.DefaultCohortConfig(), ridgeFactory)

	res, err := svc.Run(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "adhd", res.Population)
	require.Len(t, res.Entries, 18)

	pairs := map[string]int{}
	for _, e := range res.Entries {
		pairs[e.Target+"|"+e.Train+"|"+e.Test]++
		assert.Equal(t, 10, e.NumPermutations)
		assert.GreaterOrEqual(t, e.PValue, 1.0/11)
		assert.LessOrEqual(t, e.PValue, 1.0)
		assert.Equal(t, res.RunID, e.RunID)
	}
	for _, target := range []string{"FSIQ", "VCI"} {
		for _, train := range []string{"Bin 1", "Bin 2", "Bin 3"} {
			for _, test := range []string{"Bin 1", "Bin 2", "Bin 3"} {
				assert.Equal(t, 1, pairs[target+"|"+train+"|"+test], "%s %s->%s", target, train, test)
			}
		}
	}

	stored, err := kit.ResultRepository().ListEntries(context.Background(), result.Filter{RunID: res.RunID, Target: "VCI"})
	require.NoError(t, err)
	assert.Len(t, stored, 9)

	nulls := kit.ResultRepository().NullDistributions()
	require.Len(t, nulls, 18)
	for _, n := range nulls {
		assert.Len(t, n.Scores, 10)
		require.NotNil(t, n.Summary, n.Name())
		assert.GreaterOrEqual(t, n.Summary.Max, n.Summary.Percentile95)
		assert.LessOrEqual(t, n.Summary.Min, n.Summary.Median)
	}
}

func TestRunIsReproducible(t *testing.T) {
	req := baseRequest()
	req.RunID = "fixed-run"

	a, err := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory).Run(context.Background(), req)
	require.NoError(t, err)

	req.Workers = 1
	b, err := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory).Run(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(a.Entries), len(b.Entries))
	for i := range a.Entries {
		assert.Equal(t, a.Entries[i].Score, b.Entries[i].Score)
		assert.Equal(t, a.Entries[i].PValue, b.Entries[i].PValue)
	}
}

func TestRunSeedReproducesWithoutRunID(t *testing.T) {
	a, err := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory).Run(context.Background(), baseRequest())
	require.NoError(t, err)
	b, err := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory).Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	require.Equal(t, len(a.Entries), len(b.Entries))
	for i := range a.Entries {
		ea, eb := a.Entries[i], b.Entries[i]
		assert.Equal(t, ea.Target, eb.Target)
		assert.Equal(t, ea.Train, eb.Train)
		assert.Equal(t, ea.Test, eb.Test)
		assert.Equal(t, ea.Score, eb.Score, "%s %s->%s", ea.Target, ea.Train, ea.Test)
		assert.Equal(t, ea.PValue, eb.PValue, "%s %s->%s", ea.Target, ea.Train, ea.Test)
	}
}

func TestRunValidation(t *testing.T) {
	svc := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory)

	tests := []struct {
		name   string
		mutate func(*StudyRequest)
		code   string
	}{
		{"no measures", func(r *StudyRequest) { r.Measures = nil }, errors.CodeInvalidInput},
		{"no models", func(r *StudyRequest) { r.Models = nil }, errors.CodeInvalidInput},
		{"no splitter", func(r *StudyRequest) { r.Splitter = nil }, errors.CodeConfigInvalid},
		{"bad scorer", func(r *StudyRequest) { r.Scorer = "spearman" }, errors.CodeConfigInvalid},
		{"unknown model", func(r *StudyRequest) { r.Models = []string{"lasso"} }, errors.CodeConfigInvalid},
		{"unknown measure", func(r *StudyRequest) { r.Measures = []string{"PSI"} }, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			_, err := svc.Run(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), "%v", err)
		})
	}
}

func TestRunRequiresThreeBins(t *testing.T) {
	cfg := testkit.DefaultCohortConfig()
	cfg.MinAge, cfg.MaxAge = 6, 9 // everyone lands in Bin 1
	svc := newService(testkit.NewTestKit(), cfg, ridgeFactory)

	_, err := svc.Run(context.Background(), baseRequest())
	require.Error(t, err)
	// the empty bins cannot be split into folds
	assert.Equal(t, errors.CodeAnalysis, errors.GetCode(err), "%v", err)
}

func TestRunLoaderFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory)

	_, err := svc.Run(ctx, baseRequest())
	assert.Equal(t, errors.CodeDataLoad, errors.GetCode(err))
}

// cancellingEstimator cancels the study after a fixed number of fits
type cancellingEstimator struct {
	ports.Estimator
	fits   *int64
	at     int64
	cancel context.CancelFunc
}

func (c *cancellingEstimator) Clone() ports.Estimator {
	return &cancellingEstimator{Estimator: c.Estimator.Clone(), fits: c.fits, at: c.at, cancel: c.cancel}
}

func (c *cancellingEstimator) Fit(X, Y mat.Matrix) error {
	if atomic.AddInt64(c.fits, 1) == c.at {
		c.cancel()
	}
	return c.Estimator.Fit(X, Y)
}

func TestRunCancelledKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fits int64
	factory := func(name string) (ports.Estimator, error) {
		// 5 true fits then 3 complete repetitions of 5 folds
		return &cancellingEstimator{Estimator: estimator.NewRidge(1), fits: &fits, at: 22, cancel: cancel}, nil
	}
	kit := testkit.NewTestKit()
	svc := newService(kit, testkit.DefaultCohortConfig(), factory)

	req := baseRequest()
	req.Workers = 1
	res, err := svc.Run(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Partial)
	require.Len(t, res.Entries, 3)
	for _, e := range res.Entries {
		assert.Equal(t, "Bin 1", e.Train)
		assert.Equal(t, 3, e.NumPermutations)
	}

	stored, err := kit.ResultRepository().ListEntries(context.Background(), result.Filter{})
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestBins(t *testing.T) {
	svc := newService(testkit.NewTestKit(), testkit.DefaultCohortConfig(), ridgeFactory)

	bins, err := svc.Bins(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, bins, 3)

	total := 0
	for _, b := range bins {
		total += b.Count
		assert.LessOrEqual(t, b.MinAge, b.MaxAge)
	}
	assert.Equal(t, 90, total)
	assert.LessOrEqual(t, bins[0].MaxAge, 9.0)
	assert.Greater(t, bins[2].MinAge, 12.0)

	_, err = svc.Bins(context.Background(), 4)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
