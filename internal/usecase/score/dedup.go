package score

import "github.com/kailas-cloud/homescout/internal/domain/listing"

// Dedup removes duplicate candidates by canonical id, keeping the first
// occurrence and preserving order. Upstream pages overlap heavily (duplicate
// rates near 95% have been observed across paginated fetches), so dedup runs
// before scoring to avoid wasted work and skewed counts.
func Dedup(candidates []listing.Listing) []listing.Listing {
	if len(candidates) == 0 {
		return candidates
	}

	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		if _, dup := seen[c.ID()]; dup {
			continue
		}
		seen[c.ID()] = struct{}{}
		out = append(out, c)
	}
	return out
}
