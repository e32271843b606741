package filestore

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"crosspred/domain/core"
	"crosspred/domain/result"
	"crosspred/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func entries(target string) []result.Entry {
	return []result.Entry{
		{Model: "ridge", Target: target, Train: "Bin 1", Test: "Bin 1", Score: 0.31, PValue: 0.02, Population: "adhd", NumPermutations: 100},
		{Model: "pls", Target: target, Train: "Bin 1", Test: "Bin 2", Score: -0.05, PValue: 0.7, Population: "adhd", NumPermutations: 100},
	}
}

func headerCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), "Model,Target,Train,Test")
}

func TestSaveEntriesHeaderSemantics(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir, "cross_prediction", false, quiet)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(s.Path(), "cross_prediction.csv"))

	require.NoError(t, s.SaveEntries(ctx, entries("FSIQ")))
	require.NoError(t, s.SaveEntries(ctx, entries("VCI")))
	assert.Equal(t, 1, headerCount(t, s.Path()))

	got, err := s.ListEntries(ctx, result.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 4)

	// a new appending store keeps old rows and writes no header
	appender, err := New(dir, "cross_prediction.csv", true, quiet)
	require.NoError(t, err)
	require.NoError(t, appender.SaveEntries(ctx, entries("WMI")))
	assert.Equal(t, 1, headerCount(t, s.Path()))
	got, err = appender.ListEntries(ctx, result.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 6)

	// a new overwriting store starts over
	fresh, err := New(dir, "cross_prediction", false, quiet)
	require.NoError(t, err)
	require.NoError(t, fresh.SaveEntries(ctx, entries("PSI")))
	got, err = fresh.ListEntries(ctx, result.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAppendToMissingFileWritesHeader(t *testing.T) {
	s, err := New(t.TempDir(), "results", true, quiet)
	require.NoError(t, err)
	require.NoError(t, s.SaveEntries(context.Background(), entries("FSIQ")))
	assert.Equal(t, 1, headerCount(t, s.Path()))
}

func TestListEntriesFilter(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "results", false, quiet)
	require.NoError(t, err)

	got, err := s.ListEntries(ctx, result.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SaveEntries(ctx, append(entries("FSIQ"), entries("VCI")...)))

	got, err = s.ListEntries(ctx, result.Filter{Model: "ridge", RunID: "ignored"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries("FSIQ")[0].Score, got[0].Score)

	got, err = s.ListEntries(ctx, result.Filter{Target: "VCI", Model: "pls"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bin 2", got[0].Test)
}

func TestNullDistributions(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "results", false, quiet)
	require.NoError(t, err)

	null := result.NullDistribution{Model: "ridge", Target: "FSIQ", Train: "Bin 1", Test: "Bin 3", Seed: 42, Scores: []float64{0.1, -0.2, 0.05}}
	require.NoError(t, s.SaveNullDistribution(ctx, null))

	got, err := s.LoadNullDistribution("ridge_FSIQ_Bin_1_Bin_3")
	require.NoError(t, err)
	assert.Equal(t, null, got)

	_, err = s.LoadNullDistribution("missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestNullDistributionsOfAppendedRunsCoexist(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	saved := make(map[core.RunID]result.NullDistribution)
	for i, runID := range []core.RunID{"run-a", "run-b"} {
		s, err := New(dir, "results", i > 0, quiet)
		require.NoError(t, err)

		scores := []float64{0.1 * float64(i+1), -0.2, 0.05}
		summary, err := result.Summarize(scores)
		require.NoError(t, err)
		null := result.NullDistribution{RunID: runID, Model: "ridge", Target: "FSIQ", Train: "Bin 1", Test: "Bin 1", Seed: 42, Scores: scores, Summary: &summary}
		require.NoError(t, s.SaveNullDistribution(ctx, null))
		saved[runID] = null
	}

	s, err := New(dir, "results", true, quiet)
	require.NoError(t, err)
	for runID, want := range saved {
		got, err := s.LoadNullDistribution(want.Name())
		require.NoError(t, err, "run %s", runID)
		assert.Equal(t, want, got)
		require.NotNil(t, got.Summary)
	}
}

func TestCancelledContext(t *testing.T) {
	s, err := New(t.TempDir(), "results", false, quiet)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.SaveEntries(ctx, entries("FSIQ")))
}
