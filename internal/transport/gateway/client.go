// Package gateway is the HTTP client for the upstream listings service. The
// upstream is treated as unreliable: it may time out, rate limit, return
// malformed payloads or silently ignore filters. The client classifies each
// failure; absorbing them is the planner's job.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/listing"
	"github.com/kailas-cloud/homescout/internal/metrics"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 100
)

// Config holds the listings gateway settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	PageSize int
	Logger   *zap.Logger
}

// Client implements usecase/relax.Gateway over the listings HTTP API.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	logger   *zap.Logger
}

// NewClient creates a listings gateway client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		logger:   log,
	}
}

type searchRequest struct {
	Location    string             `json:"location,omitempty"`
	ListingType string             `json:"listing_type,omitempty"`
	Numerics    map[string]float64 `json:"numerics,omitempty"`
	Tags        map[string]string  `json:"tags,omitempty"`
	Flags       map[string]bool    `json:"flags,omitempty"`
	Amenities   []string           `json:"amenities,omitempty"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
}

type listingPayload struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	City         string             `json:"city"`
	Neighborhood string             `json:"neighborhood"`
	ListingType  string             `json:"listing_type"`
	Numerics     map[string]float64 `json:"numerics"`
	Tags         map[string]string  `json:"tags"`
	Flags        map[string]bool    `json:"flags"`
	Amenities    []string           `json:"amenities"`
}

type searchResponse struct {
	Items   []listingPayload `json:"items"`
	HasMore bool             `json:"has_more"`
}

type popularResponse struct {
	Items []listingPayload `json:"items"`
}

// FetchPage returns one candidate page. Upstream pages may overlap; the
// caller dedups.
func (c *Client) FetchPage(ctx context.Context, q listing.Query, page int) (listing.Page, error) {
	body, err := json.Marshal(searchRequest{
		Location:    q.Location,
		ListingType: q.ListingType,
		Numerics:    q.Numerics,
		Tags:        q.Tags,
		Flags:       q.Flags,
		Amenities:   q.Amenities,
		Page:        page,
		PageSize:    c.pageSize,
	})
	if err != nil {
		return listing.Page{}, fmt.Errorf("marshal search request: %w", err)
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/listings/search", body, &resp); err != nil {
		return listing.Page{}, err
	}

	return listing.Page{Items: parseListings(resp.Items), HasMore: resp.HasMore}, nil
}

// FetchPopular returns generally relevant listings for a scope.
func (c *Client) FetchPopular(ctx context.Context, location string, limit int) ([]listing.Listing, error) {
	u := c.baseURL + "/v1/listings/popular?" + url.Values{
		"location": {location},
		"limit":    {strconv.Itoa(limit)},
	}.Encode()

	var resp popularResponse
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return parseListings(resp.Items), nil
}

// HealthCheck verifies upstream availability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := "upstream"
		if isTimeout(err) {
			kind = "timeout"
		}
		metrics.GatewayErrorsTotal.WithLabelValues(kind).Inc()
		c.logger.Warn("gateway request failed",
			zap.String("url", u),
			zap.String("kind", kind),
			zap.Duration("took", time.Since(started)),
			zap.Error(err),
		)
		return fmt.Errorf("gateway %s: %w: %w", kind, domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.GatewayErrorsTotal.WithLabelValues("rate_limited").Inc()
		return fmt.Errorf("gateway status %d: %w", resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		metrics.GatewayErrorsTotal.WithLabelValues("upstream").Inc()
		return fmt.Errorf("gateway status %d: %w", resp.StatusCode, domain.ErrGatewayUnavailable)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues("upstream").Inc()
		return fmt.Errorf("read gateway response: %w: %w", domain.ErrGatewayUnavailable, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("malformed gateway response: %w: %w", domain.ErrGatewayUnavailable, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// parseListings drops records without an id; they cannot be deduped or
// referenced later in the conversation.
func parseListings(items []listingPayload) []listing.Listing {
	out := make([]listing.Listing, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		out = append(out, listing.Reconstruct(
			it.ID, it.Title, it.City, it.Neighborhood, it.ListingType,
			it.Numerics, it.Tags, it.Flags, it.Amenities,
		))
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
