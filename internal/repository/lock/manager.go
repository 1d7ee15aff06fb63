// Package lock provides the cross-instance session lock: one writer per
// session id at a time, fleet-wide, built on atomic set-if-absent with expiry
// and compare-and-delete release.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/session"
	"github.com/kailas-cloud/homescout/internal/logger"
)

const (
	defaultPrefix       = "homescout:"
	defaultTTL          = 30 * time.Second
	defaultWaitTimeout  = 5 * time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// store is the consumer interface for the lock manager (ISP).
type store interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key, value string) (bool, error)
}

// Manager implements usecase/search.LockManager.
type Manager struct {
	store  store
	prefix string

	ttl          time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration

	waits    prometheus.Histogram
	timeouts prometheus.Counter
}

// New creates a session lock manager with default timings.
func New(s store) *Manager {
	return &Manager{
		store:        s,
		prefix:       defaultPrefix,
		ttl:          defaultTTL,
		waitTimeout:  defaultWaitTimeout,
		pollInterval: defaultPollInterval,
	}
}

// WithPrefix overrides the key prefix.
func (m *Manager) WithPrefix(prefix string) *Manager {
	if prefix != "" {
		m.prefix = prefix
	}
	return m
}

// WithTTL sets how long a held lock survives a crashed holder.
func (m *Manager) WithTTL(ttl time.Duration) *Manager {
	if ttl > 0 {
		m.ttl = ttl
	}
	return m
}

// WithWait sets how long Acquire polls for a contended lock and at what
// interval.
func (m *Manager) WithWait(timeout, pollInterval time.Duration) *Manager {
	if timeout > 0 {
		m.waitTimeout = timeout
	}
	if pollInterval > 0 {
		m.pollInterval = pollInterval
	}
	return m
}

// WithMetrics attaches the wait histogram and timeout counter.
func (m *Manager) WithMetrics(waits prometheus.Histogram, timeouts prometheus.Counter) *Manager {
	m.waits = waits
	m.timeouts = timeouts
	return m
}

// Acquire takes the session lock, polling while another holder keeps it.
// The returned token carries a unique fencing value; only that value can
// release the lock. Returns domain.ErrSessionBusy when the wait deadline
// passes, the context error when the caller gives up first.
func (m *Manager) Acquire(ctx context.Context, sessionID string) (session.LockToken, error) {
	key := m.lockKey(sessionID)
	value := uuid.NewString()
	start := time.Now()
	deadline := start.Add(m.waitTimeout)

	for {
		ok, err := m.store.SetNX(ctx, key, value, m.ttl)
		if err != nil {
			return session.LockToken{}, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			if m.waits != nil {
				m.waits.Observe(time.Since(start).Seconds())
			}
			return session.NewLockToken(sessionID, value, time.Now()), nil
		}

		if time.Now().Add(m.pollInterval).After(deadline) {
			if m.timeouts != nil {
				m.timeouts.Inc()
			}
			return session.LockToken{}, fmt.Errorf(
				"session %s: %w", sessionID, domain.ErrSessionBusy)
		}

		select {
		case <-ctx.Done():
			return session.LockToken{}, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-time.After(m.pollInterval):
		}
	}
}

// Release frees the lock if the token still owns it. A lock that expired or
// was taken over is logged and otherwise ignored; the new holder must not be
// disturbed.
func (m *Manager) Release(ctx context.Context, token session.LockToken) error {
	if token.IsZero() {
		return nil
	}
	key := m.lockKey(token.SessionID())

	released, err := m.store.DelIfEqual(ctx, key, token.Value())
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	if !released {
		logger.FromContext(ctx).Warn("lock already expired or taken over",
			zap.String("session_id", token.SessionID()),
			zap.Duration("held", time.Since(token.AcquiredAt())),
		)
	}
	return nil
}

func (m *Manager) lockKey(sessionID string) string {
	return fmt.Sprintf("%ssession:%s:lock", m.prefix, sessionID)
}
