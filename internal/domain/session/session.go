// Package session holds the per-session state shared across service
// instances: the cached scored result set and the lock token guarding its
// mutation.
package session

import (
	"time"

	"github.com/kailas-cloud/homescout/internal/domain/match"
)

// LockToken proves ownership of a session lock. It is opaque to everything
// but the lock manager; at most one live token exists per session id across
// the whole fleet.
type LockToken struct {
	sessionID  string
	value      string
	acquiredAt time.Time
}

// NewLockToken creates a token for an acquired lock.
func NewLockToken(sessionID, value string, acquiredAt time.Time) LockToken {
	return LockToken{sessionID: sessionID, value: value, acquiredAt: acquiredAt}
}

// SessionID returns the session the token guards.
func (t *LockToken) SessionID() string { return t.sessionID }

// Value returns the opaque fencing value stored in the lock key.
func (t *LockToken) Value() string { return t.value }

// AcquiredAt returns when the lock was taken.
func (t *LockToken) AcquiredAt() time.Time { return t.acquiredAt }

// IsZero reports whether the token is unset.
func (t *LockToken) IsZero() bool { return t.value == "" }

// ResultSet is a fully fetched, scored, deduplicated result set for one
// criteria fingerprint. It is written to the cache as a whole and paged from
// memory; individual results are immutable.
type ResultSet struct {
	results       []match.Result
	level         match.Level
	relaxedFields []string
	reason        string
	fetchedAt     time.Time
}

// NewResultSet creates a result set.
func NewResultSet(
	results []match.Result, level match.Level,
	relaxedFields []string, reason string, fetchedAt time.Time,
) ResultSet {
	return ResultSet{
		results: results, level: level, relaxedFields: relaxedFields,
		reason: reason, fetchedAt: fetchedAt,
	}
}

// Results returns the full ordered result sequence.
func (s *ResultSet) Results() []match.Result { return s.results }

// Level returns the coarsest relaxation level reached.
func (s *ResultSet) Level() match.Level { return s.level }

// RelaxedFields returns the field names loosened to produce the set.
func (s *ResultSet) RelaxedFields() []string { return s.relaxedFields }

// Reason returns the human-readable explanation for degraded or empty sets.
func (s *ResultSet) Reason() string { return s.reason }

// FetchedAt returns when the set was fetched from upstream.
func (s *ResultSet) FetchedAt() time.Time { return s.fetchedAt }

// Total returns the number of results before pagination.
func (s *ResultSet) Total() int { return len(s.results) }

// Page returns the slice [offset, offset+limit) of the cached results. The
// second return is false when the offset lies beyond the cached set, meaning
// the caller needs a fresh, broader fetch.
func (s *ResultSet) Page(offset, limit int) ([]match.Result, bool) {
	if offset < 0 || limit <= 0 {
		return nil, false
	}
	if offset >= len(s.results) {
		// Offset 0 against an empty set is a valid empty page.
		return nil, offset == 0 && len(s.results) == 0
	}
	end := offset + limit
	if end > len(s.results) {
		end = len(s.results)
	}
	return s.results[offset:end], true
}

// State is the persisted per-session snapshot: which criteria were last
// resolved and the result set they produced. Mutated only under the session
// lock; the cache TTL expires the snapshot without destroying the session.
type State struct {
	sessionID   string
	fingerprint string
	results     ResultSet
}

// NewState creates a session state snapshot.
func NewState(sessionID, fingerprint string, results ResultSet) State {
	return State{sessionID: sessionID, fingerprint: fingerprint, results: results}
}

// SessionID returns the owning session id.
func (s *State) SessionID() string { return s.sessionID }

// Fingerprint returns the criteria fingerprint the results belong to.
func (s *State) Fingerprint() string { return s.fingerprint }

// Results returns the cached result set.
func (s *State) Results() ResultSet { return s.results }
