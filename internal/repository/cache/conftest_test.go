package cache

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/homescout/internal/domain/listing"
	"github.com/kailas-cloud/homescout/internal/domain/match"
	"github.com/kailas-cloud/homescout/internal/domain/session"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn        func(ctx context.Context, key string) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testState(t *testing.T) session.State {
	t.Helper()
	l := listing.Reconstruct("lst-1", "Two-bed in Old Town", "riverton", "old town", "rent",
		map[string]float64{"bedrooms": 2, "price": 1800},
		map[string]string{"view": "water"},
		map[string]bool{"pets_allowed": true},
		[]string{"balcony", "parking"},
	)
	rs := session.NewResultSet(
		[]match.Result{match.New(l, match.Relaxed, 0.83, []string{"view"})},
		match.Relaxed,
		[]string{"view"},
		"no exact matches; loosened optional preferences",
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	)
	return session.NewState("sess-42", "f00dfeed", rs)
}
