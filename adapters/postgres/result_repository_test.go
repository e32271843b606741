package postgres

import (
	"context"
	"os"
	"testing"

	"crosspred/adapters/db/postgres/migrations"
	"crosspred/domain/core"
	"crosspred/domain/result"
	"crosspred/internal"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter result.Filter
		where  string
		args   int
	}{
		{"no filter", result.Filter{}, "", 0},
		{"target", result.Filter{Target: "FSIQ"}, "WHERE target = $1", 1},
		{"all", result.Filter{RunID: "r", Model: "pls", Target: "VCI"}, "WHERE run_id = $1 AND model = $2 AND target = $3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := listQuery(tt.filter)
			assert.Len(t, args, tt.args)
			if tt.where == "" {
				assert.NotContains(t, q, "WHERE")
			} else {
				assert.Contains(t, q, tt.where)
			}
			assert.Contains(t, q, "ORDER BY id")
		})
	}
}

func TestResultRepositoryAgainstPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, migrations.NewMigrator(db.DB, internal.NewLogger(internal.LogLevelError)).Up(ctx))

	repo := NewResultRepository(db).(*ResultRepositoryImpl)
	runID := core.NewRunID()
	entries := []result.Entry{
		{RunID: runID, Model: "ridge", Target: "FSIQ", Train: "Bin 1", Test: "Bin 2", Score: 0.2, PValue: 0.04, Population: "adhd", NumPermutations: 10},
		{RunID: runID, Model: "pls", Target: "FSIQ", Train: "Bin 1", Test: "Bin 2", Score: 0.1, PValue: 0.3, Population: "adhd", NumPermutations: 10},
	}
	require.NoError(t, repo.SaveEntries(ctx, entries))

	got, err := repo.ListEntries(ctx, result.Filter{RunID: runID, Model: "ridge"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entries[0], got[0])

	null := result.NullDistribution{RunID: runID, Model: "ridge", Target: "FSIQ", Train: "Bin 1", Test: "Bin 2", Seed: 42, Scores: []float64{0.1, 0.2}}
	require.NoError(t, repo.SaveNullDistribution(ctx, null))

	loaded, err := repo.GetNullDistribution(ctx, result.NullDistribution{RunID: runID, Model: "ridge", Target: "FSIQ", Train: "Bin 1", Test: "Bin 2"})
	require.NoError(t, err)
	assert.Equal(t, null, loaded)

	summary, err := result.Summarize([]float64{0.3, 0.1, 0.2})
	require.NoError(t, err)
	summarized := result.NullDistribution{RunID: runID, Model: "pls", Target: "FSIQ", Train: "Bin 1", Test: "Bin 2", Seed: 42, Scores: []float64{0.3, 0.1, 0.2}, Summary: &summary}
	require.NoError(t, repo.SaveNullDistribution(ctx, summarized))

	loaded, err = repo.GetNullDistribution(ctx, result.NullDistribution{RunID: runID, Model: "pls", Target: "FSIQ", Train: "Bin 1", Test: "Bin 2"})
	require.NoError(t, err)
	assert.Equal(t, summarized, loaded)
}
