// Package chi is the inbound HTTP surface: the conversational search
// endpoint plus health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/match"
	healthuc "github.com/kailas-cloud/homescout/internal/usecase/health"
	searchuc "github.com/kailas-cloud/homescout/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeSessionBusy      = "session_busy"
	codeRateLimited      = "rate_limited"
	codeGatewayError     = "gateway_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidCriteria, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSessionBusy, http.StatusConflict, codeSessionBusy),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrGatewayUnavailable, http.StatusBadGateway, codeGatewayError),
	}
	return s
}

// Routes registers the API routes on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/search", s.SearchListings)
	r.Post("/api/v1/search/refresh", s.RefreshResults)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchPayload struct {
	SessionID   string         `json:"session_id"`
	Criteria    map[string]any `json:"criteria"`
	Location    string         `json:"location"`
	ListingType string         `json:"listing_type"`
	Offset      int            `json:"offset"`
	Limit       int            `json:"limit"`
}

type resultItem struct {
	ID            string             `json:"id"`
	Title         string             `json:"title,omitempty"`
	City          string             `json:"city,omitempty"`
	Neighborhood  string             `json:"neighborhood,omitempty"`
	ListingType   string             `json:"listing_type,omitempty"`
	MatchLevel    string             `json:"match_level"`
	Score         float64            `json:"score"`
	RelaxedFields []string           `json:"relaxed_fields,omitempty"`
	Numerics      map[string]float64 `json:"numerics,omitempty"`
	Tags          map[string]string  `json:"tags,omitempty"`
	Flags         map[string]bool    `json:"flags,omitempty"`
	Amenities     []string           `json:"amenities,omitempty"`
}

type searchResult struct {
	RequestID     string       `json:"request_id"`
	SessionID     string       `json:"session_id"`
	Items         []resultItem `json:"items"`
	Total         int          `json:"total"`
	Offset        int          `json:"offset"`
	Limit         int          `json:"limit"`
	MatchLevel    string       `json:"match_level"`
	RelaxedFields []string     `json:"relaxed_fields,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Stale         bool         `json:"stale,omitempty"`
}

// SearchListings handles POST /api/v1/search.
func (s *Server) SearchListings(w http.ResponseWriter, r *http.Request) {
	var req searchPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "session_id is required")
		return
	}

	resp, err := s.search.Search(r.Context(), searchuc.Request{
		SessionID: req.SessionID,
		Criteria: criteria.Raw{
			Fields:      req.Criteria,
			Location:    req.Location,
			ListingType: criteria.ListingType(req.ListingType),
		},
		Offset: req.Offset,
		Limit:  req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultToAPI(resp))
}

// RefreshResults handles POST /api/v1/search/refresh: it drops the cached
// result set so the next identical search re-resolves from upstream.
func (s *Server) RefreshResults(w http.ResponseWriter, r *http.Request) {
	var req searchPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "session_id is required")
		return
	}

	err := s.search.Refresh(r.Context(), req.SessionID, criteria.Raw{
		Fields:      req.Criteria,
		Location:    req.Location,
		ListingType: criteria.ListingType(req.ListingType),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchResultToAPI(resp searchuc.Response) searchResult {
	items := make([]resultItem, 0, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		l := r.Candidate()
		items = append(items, resultItem{
			ID:            l.ID(),
			Title:         l.Title(),
			City:          l.City(),
			Neighborhood:  l.Neighborhood(),
			ListingType:   l.ListingType(),
			MatchLevel:    string(r.Level()),
			Score:         r.Score(),
			RelaxedFields: r.RelaxedFields(),
			Numerics:      l.Numerics(),
			Tags:          l.Tags(),
			Flags:         l.Flags(),
			Amenities:     l.Amenities(),
		})
	}

	level := resp.Level
	if level == "" {
		level = match.None
	}

	return searchResult{
		RequestID:     resp.RequestID,
		SessionID:     resp.SessionID,
		Items:         items,
		Total:         resp.Total,
		Offset:        resp.Offset,
		Limit:         resp.Limit,
		MatchLevel:    string(level),
		RelaxedFields: resp.RelaxedFields,
		Reason:        resp.Reason,
		Stale:         resp.Stale,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidCriteria,
		domain.ErrNotFound,
		domain.ErrSessionBusy,
		domain.ErrRateLimited,
		domain.ErrGatewayUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
