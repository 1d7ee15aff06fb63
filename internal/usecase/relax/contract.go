package relax

import (
	"context"

	"github.com/kailas-cloud/homescout/internal/domain/listing"
)

// Gateway is the upstream listings source. It is assumed unreliable: pages
// may overlap, filters may be silently ignored, calls may be slow or fail.
type Gateway interface {
	// FetchPage returns one raw candidate page for the query.
	FetchPage(ctx context.Context, q listing.Query, page int) (listing.Page, error)
	// FetchPopular returns a bounded set of generally relevant listings for
	// the broadest known scope, used by the terminal fallback state.
	FetchPopular(ctx context.Context, location string, limit int) ([]listing.Listing, error)
}
