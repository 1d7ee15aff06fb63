package cache

import (
	"time"

	"github.com/kailas-cloud/homescout/internal/domain/listing"
	"github.com/kailas-cloud/homescout/internal/domain/match"
	"github.com/kailas-cloud/homescout/internal/domain/session"
)

type listingDTO struct {
	ID           string             `json:"id"`
	Title        string             `json:"title,omitempty"`
	City         string             `json:"city,omitempty"`
	Neighborhood string             `json:"neighborhood,omitempty"`
	ListingType  string             `json:"listing_type,omitempty"`
	Numerics     map[string]float64 `json:"numerics,omitempty"`
	Tags         map[string]string  `json:"tags,omitempty"`
	Flags        map[string]bool    `json:"flags,omitempty"`
	Amenities    []string           `json:"amenities,omitempty"`
}

type resultDTO struct {
	Listing       listingDTO `json:"listing"`
	Level         string     `json:"level"`
	Score         float64    `json:"score"`
	RelaxedFields []string   `json:"relaxed_fields,omitempty"`
}

type snapshotDTO struct {
	SessionID     string      `json:"session_id"`
	Fingerprint   string      `json:"fingerprint"`
	Level         string      `json:"level"`
	RelaxedFields []string    `json:"relaxed_fields,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	FetchedAt     time.Time   `json:"fetched_at"`
	Results       []resultDTO `json:"results"`
}

func buildSnapshot(st session.State) snapshotDTO {
	rs := st.Results()
	results := make([]resultDTO, 0, rs.Total())
	for _, r := range rs.Results() {
		l := r.Candidate()
		results = append(results, resultDTO{
			Listing: listingDTO{
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
			Level:         string(r.Level()),
			Score:         r.Score(),
			RelaxedFields: r.RelaxedFields(),
		})
	}
	return snapshotDTO{
		SessionID:     st.SessionID(),
		Fingerprint:   st.Fingerprint(),
		Level:         string(rs.Level()),
		RelaxedFields: rs.RelaxedFields(),
		Reason:        rs.Reason(),
		FetchedAt:     rs.FetchedAt(),
		Results:       results,
	}
}

func parseSnapshot(d snapshotDTO) session.State {
	results := make([]match.Result, 0, len(d.Results))
	for _, r := range d.Results {
		l := listing.Reconstruct(
			r.Listing.ID, r.Listing.Title, r.Listing.City,
			r.Listing.Neighborhood, r.Listing.ListingType,
			r.Listing.Numerics, r.Listing.Tags, r.Listing.Flags,
			r.Listing.Amenities,
		)
		results = append(results, match.New(l, match.Level(r.Level), r.Score, r.RelaxedFields))
	}
	level := match.Level(d.Level)
	if !level.IsValid() {
		// Snapshots written without a set level still carry one per result;
		// the set level is the coarsest of those.
		level = match.None
		for i := range results {
			r := &results[i]
			if i == 0 {
				level = r.Level()
				continue
			}
			level = match.Coarsest(level, r.Level())
		}
	}
	rs := session.NewResultSet(results, level, d.RelaxedFields, d.Reason, d.FetchedAt)
	return session.NewState(d.SessionID, d.Fingerprint, rs)
}
