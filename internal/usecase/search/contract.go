package search

import (
	"context"

	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/session"
	"github.com/kailas-cloud/homescout/internal/usecase/relax"
)

// Normalizer converts raw extractor output into typed criteria.
type Normalizer interface {
	Normalize(raw criteria.Raw) (criteria.Criteria, error)
}

// Planner runs the full relaxation descent for one criteria set.
type Planner interface {
	Run(ctx context.Context, c criteria.Criteria) relax.Plan
}

// ResultCache persists resolved result sets per session and fingerprint.
type ResultCache interface {
	Get(ctx context.Context, sessionID, fingerprint string) (session.State, error)
	Put(ctx context.Context, st session.State) error
	Invalidate(ctx context.Context, sessionID, fingerprint string) error
}

// LockManager serializes result-set mutation per session across all service
// instances.
type LockManager interface {
	Acquire(ctx context.Context, sessionID string) (session.LockToken, error)
	Release(ctx context.Context, token session.LockToken) error
}
