package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"crosspred/domain/result"
	"crosspred/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ResultRepositoryImpl implements ports.ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// SaveEntries inserts all entries in one transaction
func (r *ResultRepositoryImpl) SaveEntries(ctx context.Context, entries []result.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO cross_prediction_results
				(run_id, model, target, train_label, test_label, score, p_value, population, num_permutations)
			VALUES
				(:run_id, :model, :target, :train_label, :test_label, :score, :p_value, :population, :num_permutations)
		`, e)
		if err != nil {
			return fmt.Errorf("failed to insert result %s: %w", e, err)
		}
	}
	return tx.Commit()
}

// SaveNullDistribution stores the permutation scores as a float array and
// the summary, when present, as JSON
func (r *ResultRepositoryImpl) SaveNullDistribution(ctx context.Context, null result.NullDistribution) error {
	var summary []byte
	if null.Summary != nil {
		var err error
		if summary, err = json.Marshal(null.Summary); err != nil {
			return fmt.Errorf("failed to encode null summary %s: %w", null.Name(), err)
		}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permutation_null_distributions
			(run_id, model, target, train_label, test_label, seed, scores, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, null.RunID, null.Model, null.Target, null.Train, null.Test, null.Seed, pq.Array(null.Scores), summary)
	if err != nil {
		return fmt.Errorf("failed to insert null distribution %s: %w", null.Name(), err)
	}
	return nil
}

// ListEntries returns entries matching the filter, oldest first
func (r *ResultRepositoryImpl) ListEntries(ctx context.Context, filter result.Filter) ([]result.Entry, error) {
	query, args := listQuery(filter)
	var entries []result.Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return entries, nil
}

// GetNullDistribution loads the scores for one train/test pair of a run
func (r *ResultRepositoryImpl) GetNullDistribution(ctx context.Context, key result.NullDistribution) (result.NullDistribution, error) {
	var (
		scores  pq.Float64Array
		summary []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT seed, scores, summary FROM permutation_null_distributions
		WHERE run_id = $1 AND model = $2 AND target = $3 AND train_label = $4 AND test_label = $5
	`, key.RunID, key.Model, key.Target, key.Train, key.Test).Scan(&key.Seed, &scores, &summary)
	if err != nil {
		return key, fmt.Errorf("failed to load null distribution %s: %w", key.Name(), err)
	}
	key.Scores = []float64(scores)
	if len(summary) > 0 {
		key.Summary = new(result.NullSummary)
		if err := json.Unmarshal(summary, key.Summary); err != nil {
			return key, fmt.Errorf("failed to decode null summary %s: %w", key.Name(), err)
		}
	}
	return key, nil
}

func listQuery(f result.Filter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.RunID != "" {
		add("run_id", f.RunID)
	}
	if f.Model != "" {
		add("model", f.Model)
	}
	if f.Target != "" {
		add("target", f.Target)
	}

	query := `SELECT run_id, model, target, train_label, test_label, score, p_value, population, num_permutations
		FROM cross_prediction_results`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY id", args
}
