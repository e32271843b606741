package testkit

import (
	"context"
	"sort"
	"sync"

	"crosspred/adapters/rng"
	"crosspred/domain/cohort"
	"crosspred/domain/result"
	"crosspred/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	results *MemoryResultRepository // Shared result store
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{results: NewMemoryResultRepository()}
}

// RNGAdapter returns the deterministic RNG port
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return rng.New()
}

// ResultRepository returns the kit's shared in-memory result store
func (t *TestKit) ResultRepository() *MemoryResultRepository {
	return t.results
}

// CohortLoader returns a loader that serves a synthetic cohort
func (t *TestKit) CohortLoader(cfg CohortConfig) ports.CohortLoader {
	return &StaticLoader{Cohort: NewCohortGenerator(cfg).Generate()}
}

// StaticLoader implements ports.CohortLoader with a fixed cohort
type StaticLoader struct {
	Cohort *cohort.Cohort
	Err    error
}

func (l *StaticLoader) Load(ctx context.Context) (*cohort.Cohort, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Cohort, l.Err
}

// MemoryResultRepository implements ports.ResultRepository in memory
type MemoryResultRepository struct {
	mu      sync.RWMutex
	entries []result.Entry
	nulls   map[string]result.NullDistribution
}

// NewMemoryResultRepository creates an empty in-memory store
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{nulls: make(map[string]result.NullDistribution)}
}

func (m *MemoryResultRepository) SaveEntries(ctx context.Context, entries []result.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MemoryResultRepository) SaveNullDistribution(ctx context.Context, null result.NullDistribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nulls[string(null.RunID)+"/"+null.Name()] = null
	return nil
}

func (m *MemoryResultRepository) ListEntries(ctx context.Context, filter result.Filter) ([]result.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []result.Entry
	for _, e := range m.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// NullDistributions returns stored nulls sorted by name
func (m *MemoryResultRepository) NullDistributions() []result.NullDistribution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.nulls))
	for k := range m.nulls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]result.NullDistribution, len(keys))
	for i, k := range keys {
		out[i] = m.nulls[k]
	}
	return out
}
