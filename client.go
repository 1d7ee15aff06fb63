// Package homescout is the SDK entry point for the progressive
// search-relaxation engine: embed it in a dialogue service instead of
// running the HTTP server from cmd/homescout.
package homescout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/homescout/internal/db"
	dbRedis "github.com/kailas-cloud/homescout/internal/db/redis"
	"github.com/kailas-cloud/homescout/internal/domain/geo"
	cacherepo "github.com/kailas-cloud/homescout/internal/repository/cache"
	lockrepo "github.com/kailas-cloud/homescout/internal/repository/lock"
	"github.com/kailas-cloud/homescout/internal/transport/gateway"
	healthuc "github.com/kailas-cloud/homescout/internal/usecase/health"
	"github.com/kailas-cloud/homescout/internal/usecase/normalize"
	"github.com/kailas-cloud/homescout/internal/usecase/relax"
	searchuc "github.com/kailas-cloud/homescout/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the homescout SDK entry point.
type Client struct {
	store     db.Store
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
}

// New creates a homescout Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("homescout: database address required (use WithValkey or WithRedis)")
	}
	if cfg.gatewayBaseURL == "" {
		return nil, errors.New("homescout: listings gateway required (use WithGateway)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("homescout: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		// Both drivers speak the same protocol; one client serves both.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("homescout: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("homescout: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	listings := gateway.NewClient(&gateway.Config{
		BaseURL: cfg.gatewayBaseURL,
		APIKey:  cfg.gatewayAPIKey,
		Timeout: cfg.gatewayTimeout,
		Logger:  logger,
	})

	resultCache := cacherepo.New(store)
	if cfg.keyPrefix != "" {
		resultCache = resultCache.WithPrefix(cfg.keyPrefix)
	}
	if cfg.cacheTTL > 0 {
		resultCache = resultCache.WithTTL(cfg.cacheTTL)
	}

	sessionLocks := lockrepo.New(store)
	if cfg.keyPrefix != "" {
		sessionLocks = sessionLocks.WithPrefix(cfg.keyPrefix)
	}
	if cfg.lockTTL > 0 {
		sessionLocks = sessionLocks.WithTTL(cfg.lockTTL)
	}
	if cfg.lockWait > 0 && cfg.lockPoll > 0 {
		sessionLocks = sessionLocks.WithWait(cfg.lockWait, cfg.lockPoll)
	}

	planner := relax.New(listings, geo.DefaultAtlas())
	if cfg.minResults > 0 || cfg.targetResults > 0 {
		planner = planner.WithThresholds(cfg.minResults, cfg.targetResults)
	}
	if cfg.maxPages > 0 {
		planner = planner.WithMaxPages(cfg.maxPages)
	}

	searchSvc := searchuc.New(normalize.New(), planner, resultCache, sessionLocks).
		WithStaleOnBusy(cfg.staleOnBusy)
	if cfg.defaultPageSize > 0 && cfg.maxPageSize > 0 {
		searchSvc = searchSvc.WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	}

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(store, listings),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health reports the status of the database and the listings gateway.
func (c *Client) Health(ctx context.Context) Report {
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	return Report{
		Healthy: report.Status == healthuc.Healthy,
		Checks:  checks,
	}
}

// Session returns the search service bound to a single conversation session.
func (c *Client) Session(id string) *SessionService {
	return &SessionService{sessionID: id, svc: c.searchSvc}
}

// Report is the public health snapshot.
type Report struct {
	Healthy bool
	Checks  map[string]string
}
