package ports

import (
	"context"

	"crosspred/domain/cohort"
)

// CohortLoader assembles FC features, cognitive measures and demographics
type CohortLoader interface {
	Load(ctx context.Context) (*cohort.Cohort, error)
}
