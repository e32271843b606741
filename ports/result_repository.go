package ports

import (
	"context"

	"crosspred/domain/result"
)

// ResultRepository persists result entries and permutation null distributions
type ResultRepository interface {
	SaveEntries(ctx context.Context, entries []result.Entry) error
	SaveNullDistribution(ctx context.Context, null result.NullDistribution) error
	ListEntries(ctx context.Context, filter result.Filter) ([]result.Entry, error)
}
