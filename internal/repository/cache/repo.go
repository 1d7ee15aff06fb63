// Package cache persists fully resolved result sets keyed by session and
// criteria fingerprint, with a TTL that expires the snapshot without touching
// the session itself.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/homescout/internal/db"
	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/session"
)

const (
	defaultPrefix = "homescout:"
	defaultTTL    = 5 * time.Minute
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/search.ResultCache.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a result cache repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: defaultPrefix, ttl: defaultTTL}
}

// WithPrefix overrides the key prefix.
func (r *Repo) WithPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// WithTTL overrides the snapshot lifetime.
func (r *Repo) WithTTL(ttl time.Duration) *Repo {
	if ttl > 0 {
		r.ttl = ttl
	}
	return r
}

// Get returns the cached snapshot for a session and criteria fingerprint.
// Returns domain.ErrNotFound on miss or expiry.
func (r *Repo) Get(ctx context.Context, sessionID, fingerprint string) (session.State, error) {
	key := r.resultsKey(sessionID, fingerprint)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return session.State{}, domain.ErrNotFound
		}
		return session.State{}, fmt.Errorf("get %s: %w", key, err)
	}

	var d snapshotDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return session.State{}, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
	}
	return parseSnapshot(d), nil
}

// Put stores a snapshot with the configured TTL, replacing any previous one
// for the same fingerprint.
func (r *Repo) Put(ctx context.Context, st session.State) error {
	key := r.resultsKey(st.SessionID(), st.Fingerprint())
	data, err := json.Marshal(buildSnapshot(st))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the cached snapshot for a fingerprint, if any.
func (r *Repo) Invalidate(ctx context.Context, sessionID, fingerprint string) error {
	key := r.resultsKey(sessionID, fingerprint)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) resultsKey(sessionID, fingerprint string) string {
	return fmt.Sprintf("%ssession:%s:results:%s", r.prefix, sessionID, fingerprint)
}
