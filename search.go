package homescout

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	searchuc "github.com/kailas-cloud/homescout/internal/usecase/search"
)

// SessionService executes searches on behalf of a single conversation session.
// Turns for the same session serialize; concurrent sessions never interfere.
type SessionService struct {
	sessionID string
	svc       *searchuc.Service
}

// Criteria is the raw, unnormalized input extracted by the dialogue layer.
// Field values may be strings, numbers, bools, or lists; normalization
// coerces them into the canonical search schema.
type Criteria struct {
	Fields      map[string]any
	Location    string
	ListingType string
}

// SearchOptions configures result paging.
type SearchOptions struct {
	Offset int
	Limit  int
}

// Listing is a property offer returned by a search.
type Listing struct {
	ID           string
	Title        string
	City         string
	Neighborhood string
	ListingType  string
	Numerics     map[string]float64
	Tags         map[string]string
	Flags        map[string]bool
	Amenities    []string
}

// Result is one scored candidate with its relaxation provenance.
type Result struct {
	Listing       Listing
	MatchLevel    string
	Score         float64
	RelaxedFields []string
}

// SearchResponse is one page of results plus how far relaxation descended
// to produce them.
type SearchResponse struct {
	RequestID     string
	Results       []Result
	Total         int
	Offset        int
	Limit         int
	MatchLevel    string
	RelaxedFields []string
	Reason        string
	Stale         bool
}

// Search resolves the criteria to a scored, relaxation-annotated result page.
func (s *SessionService) Search(
	ctx context.Context, c Criteria, opts *SearchOptions,
) (SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	resp, err := s.svc.Search(ctx, searchuc.Request{
		SessionID: s.sessionID,
		Criteria:  toRawCriteria(c),
		Offset:    opts.Offset,
		Limit:     opts.Limit,
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	return fromSearchResponse(resp), nil
}

// Refresh drops the cached result set for these criteria so the next
// identical search re-resolves from upstream.
func (s *SessionService) Refresh(ctx context.Context, c Criteria) error {
	if err := s.svc.Refresh(ctx, s.sessionID, toRawCriteria(c)); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

func toRawCriteria(c Criteria) criteria.Raw {
	return criteria.Raw{
		Fields:      c.Fields,
		Location:    c.Location,
		ListingType: criteria.ListingType(c.ListingType),
	}
}

func fromSearchResponse(resp searchuc.Response) SearchResponse {
	results := make([]Result, 0, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		l := r.Candidate()
		results = append(results, Result{
			Listing: Listing{
				ID:           l.ID(),
				Title:        l.Title(),
				City:         l.City(),
				Neighborhood: l.Neighborhood(),
				ListingType:  l.ListingType(),
				Numerics:     l.Numerics(),
				Tags:         l.Tags(),
				Flags:        l.Flags(),
				Amenities:    l.Amenities(),
			},
			MatchLevel:    string(r.Level()),
			Score:         r.Score(),
			RelaxedFields: r.RelaxedFields(),
		})
	}

	return SearchResponse{
		RequestID:     resp.RequestID,
		Results:       results,
		Total:         resp.Total,
		Offset:        resp.Offset,
		Limit:         resp.Limit,
		MatchLevel:    string(resp.Level),
		RelaxedFields: resp.RelaxedFields,
		Reason:        resp.Reason,
		Stale:         resp.Stale,
	}
}
