package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/listing"
	"github.com/kailas-cloud/homescout/internal/domain/match"
	"github.com/kailas-cloud/homescout/internal/domain/session"
	"github.com/kailas-cloud/homescout/internal/usecase/normalize"
	"github.com/kailas-cloud/homescout/internal/usecase/relax"
)

// mockPlanner counts runs and answers through a caller-supplied function.
type mockPlanner struct {
	mu    sync.Mutex
	runs  int
	runFn func(ctx context.Context, c criteria.Criteria) relax.Plan
}

func (p *mockPlanner) Run(ctx context.Context, c criteria.Criteria) relax.Plan {
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()
	if p.runFn != nil {
		return p.runFn(ctx, c)
	}
	return relax.Plan{Results: testResults(3), Level: match.Exact}
}

func (p *mockPlanner) runCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

// memCache is an in-memory ResultCache.
type memCache struct {
	mu   sync.Mutex
	data map[string]session.State
	puts int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]session.State)}
}

func (c *memCache) key(sessionID, fingerprint string) string {
	return sessionID + "/" + fingerprint
}

func (c *memCache) Get(_ context.Context, sessionID, fingerprint string) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.data[c.key(sessionID, fingerprint)]
	if !ok {
		return session.State{}, domain.ErrNotFound
	}
	return st, nil
}

func (c *memCache) Put(_ context.Context, st session.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.data[c.key(st.SessionID(), st.Fingerprint())] = st
	return nil
}

func (c *memCache) Invalidate(_ context.Context, sessionID, fingerprint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, c.key(sessionID, fingerprint))
	return nil
}

// memLocks grants one holder per session, waiting up to the configured
// timeout before reporting busy.
type memLocks struct {
	mu      sync.Mutex
	held    map[string]chan struct{}
	timeout time.Duration
}

func newMemLocks(timeout time.Duration) *memLocks {
	return &memLocks{held: make(map[string]chan struct{}), timeout: timeout}
}

func (l *memLocks) slot(sessionID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.held[sessionID]
	if !ok {
		s = make(chan struct{}, 1)
		l.held[sessionID] = s
	}
	return s
}

func (l *memLocks) Acquire(ctx context.Context, sessionID string) (session.LockToken, error) {
	select {
	case l.slot(sessionID) <- struct{}{}:
		return session.NewLockToken(sessionID, "tok-"+sessionID, time.Now()), nil
	case <-time.After(l.timeout):
		return session.LockToken{}, domain.ErrSessionBusy
	case <-ctx.Done():
		return session.LockToken{}, ctx.Err()
	}
}

func (l *memLocks) Release(_ context.Context, token session.LockToken) error {
	<-l.slot(token.SessionID())
	return nil
}

func newTestService(t *testing.T) (*Service, *mockPlanner, *memCache, *memLocks) {
	t.Helper()
	planner := &mockPlanner{}
	cache := newMemCache()
	locks := newMemLocks(50 * time.Millisecond)
	svc := New(normalize.New(), planner, cache, locks)
	return svc, planner, cache, locks
}

func testResults(n int) []match.Result {
	results := make([]match.Result, 0, n)
	for i := 0; i < n; i++ {
		l := listing.Reconstruct(fmt.Sprintf("lst-%d", i), "Unit", "riverton", "old town", "rent",
			map[string]float64{"bedrooms": 2}, nil, nil, nil)
		results = append(results, match.New(l, match.Exact, 1.0, nil))
	}
	return results
}

func rawCriteria(bedrooms float64) criteria.Raw {
	return criteria.Raw{
		Fields:      map[string]any{"bedrooms": bedrooms},
		Location:    "old town",
		ListingType: criteria.Rent,
	}
}
