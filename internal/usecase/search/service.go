// Package search orchestrates one conversational search turn: normalize the
// raw criteria, take the session lock, resolve the result set from cache or a
// fresh relaxation run, and page the answer.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/match"
	"github.com/kailas-cloud/homescout/internal/domain/reqctx"
	"github.com/kailas-cloud/homescout/internal/domain/session"
	"github.com/kailas-cloud/homescout/internal/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Request is one search turn within a session.
type Request struct {
	SessionID string
	Criteria  criteria.Raw
	Offset    int
	Limit     int
}

// Response is the paged answer for one search turn. Results carry per-item
// levels; Level is the coarsest level of the whole set.
type Response struct {
	RequestID     string
	SessionID     string
	Results       []match.Result
	Total         int
	Offset        int
	Limit         int
	Level         match.Level
	RelaxedFields []string
	Reason        string
	// Stale marks a response served from a previous resolution because the
	// session lock was held by another request.
	Stale bool
}

// Service is the session search orchestrator.
type Service struct {
	norm    Normalizer
	planner Planner
	cache   ResultCache
	locks   LockManager

	defaultPageSize  int
	maxPageSize      int
	serveStaleOnBusy bool

	cacheOutcomes *prometheus.CounterVec
}

// New creates a search orchestrator.
func New(norm Normalizer, planner Planner, cache ResultCache, locks LockManager) *Service {
	return &Service{
		norm: norm, planner: planner, cache: cache, locks: locks,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// WithPagination overrides the default and maximum page sizes.
func (s *Service) WithPagination(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// WithStaleOnBusy serves the previous cached resolution instead of failing
// when the session lock is contended.
func (s *Service) WithStaleOnBusy(enabled bool) *Service {
	s.serveStaleOnBusy = enabled
	return s
}

// WithMetrics attaches the cache outcome counter.
func (s *Service) WithMetrics(cacheOutcomes *prometheus.CounterVec) *Service {
	s.cacheOutcomes = cacheOutcomes
	return s
}

// Search executes one turn. Identical criteria within a session reuse the
// cached result set; changed criteria trigger a fresh relaxation run under
// the session lock. Concurrent turns on the same session serialize; turns on
// different sessions never block each other.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	if req.SessionID == "" {
		return Response{}, fmt.Errorf("%w: session id is required", domain.ErrInvalidCriteria)
	}

	rc := reqctx.New(req.SessionID)
	ctx = reqctx.WithContext(ctx, rc)
	log := logger.FromContext(ctx).With(
		zap.String("request_id", rc.RequestID()),
		zap.String("session_id", req.SessionID),
	)
	ctx = logger.ContextWithLogger(ctx, log)

	c, err := s.norm.Normalize(req.Criteria)
	if err != nil {
		return Response{}, fmt.Errorf("normalize criteria: %w", err)
	}
	fingerprint := c.Fingerprint()
	offset, limit := s.clampPage(req.Offset, req.Limit)

	token, err := s.locks.Acquire(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionBusy) && s.serveStaleOnBusy {
			if resp, ok := s.tryStale(ctx, rc, fingerprint, offset, limit); ok {
				return resp, nil
			}
		}
		return Response{}, fmt.Errorf("acquire session lock: %w", err)
	}
	defer func() {
		if err := s.locks.Release(ctx, token); err != nil {
			log.Error("session lock release failed", zap.Error(err))
		}
	}()

	st, err := s.cache.Get(ctx, req.SessionID, fingerprint)
	switch {
	case err == nil:
		s.observeCache("hit")
		log.Debug("result cache hit", zap.String("fingerprint", fingerprint))
		if !pageServable(st, offset, limit) {
			// Paging past the cached set asks for records the snapshot never
			// held; only a fresh resolution can answer.
			log.Debug("page beyond cached set; re-resolving",
				zap.String("fingerprint", fingerprint), zap.Int("offset", offset))
			st, err = s.resolve(ctx, rc, c, fingerprint)
			if err != nil {
				return Response{}, err
			}
		}
	case errors.Is(err, domain.ErrNotFound):
		s.observeCache("miss")
		st, err = s.resolve(ctx, rc, c, fingerprint)
		if err != nil {
			return Response{}, err
		}
	default:
		return Response{}, fmt.Errorf("result cache get: %w", err)
	}

	return s.respond(rc, st, offset, limit, false), nil
}

// Refresh drops the cached result set for the given criteria so the next
// turn re-resolves from upstream.
func (s *Service) Refresh(ctx context.Context, sessionID string, raw criteria.Raw) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidCriteria)
	}
	c, err := s.norm.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize criteria: %w", err)
	}
	if err := s.cache.Invalidate(ctx, sessionID, c.Fingerprint()); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

// resolve runs the planner and caches the full resolved set. A cache write
// failure degrades to uncached operation, it never loses the results.
func (s *Service) resolve(
	ctx context.Context, rc reqctx.Context,
	c criteria.Criteria, fingerprint string,
) (session.State, error) {
	log := logger.FromContext(ctx)

	started := time.Now()
	plan := s.planner.Run(ctx, c)
	log.Info("relaxation run finished",
		zap.String("level", string(plan.Level)),
		zap.Int("total", len(plan.Results)),
		zap.Duration("took", time.Since(started)),
	)

	rs := session.NewResultSet(plan.Results, plan.Level, plan.RelaxedFields, plan.Reason, time.Now().UTC())
	st := session.NewState(rc.SessionID(), fingerprint, rs)

	if err := s.cache.Put(ctx, st); err != nil {
		log.Warn("result cache write failed", zap.Error(err))
	}
	return st, nil
}

// tryStale answers a lock-contended request from the existing cached
// resolution, if one exists for the same criteria.
func (s *Service) tryStale(
	ctx context.Context, rc reqctx.Context,
	fingerprint string, offset, limit int,
) (Response, bool) {
	st, err := s.cache.Get(ctx, rc.SessionID(), fingerprint)
	if err != nil {
		return Response{}, false
	}
	rs := st.Results()
	s.observeCache("stale")
	logger.FromContext(ctx).Info("serving stale results while session is busy",
		zap.String("fingerprint", fingerprint),
		zap.Time("fetched_at", rs.FetchedAt()),
	)
	return s.respond(rc, st, offset, limit, true), true
}

func (s *Service) respond(rc reqctx.Context, st session.State, offset, limit int, stale bool) Response {
	rs := st.Results()
	page, ok := rs.Page(offset, limit)
	if !ok {
		page = nil
	}
	if page == nil {
		page = []match.Result{}
	}
	return Response{
		RequestID:     rc.RequestID(),
		SessionID:     rc.SessionID(),
		Results:       page,
		Total:         rs.Total(),
		Offset:        offset,
		Limit:         limit,
		Level:         rs.Level(),
		RelaxedFields: rs.RelaxedFields(),
		Reason:        rs.Reason(),
		Stale:         stale,
	}
}

// pageServable reports whether the cached snapshot can answer the requested
// window. Offsets beyond the cached set need a fresh resolution.
func pageServable(st session.State, offset, limit int) bool {
	rs := st.Results()
	_, ok := rs.Page(offset, limit)
	return ok
}

func (s *Service) clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return offset, limit
}

func (s *Service) observeCache(outcome string) {
	if s.cacheOutcomes != nil {
		s.cacheOutcomes.WithLabelValues(outcome).Inc()
	}
}
