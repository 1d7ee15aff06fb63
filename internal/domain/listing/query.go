package listing

// Query is the filter set sent to the upstream gateway for one fetch. The
// gateway may silently ignore any filter, so callers must re-check results.
type Query struct {
	Location    string
	ListingType string
	Numerics    map[string]float64
	Tags        map[string]string
	Flags       map[string]bool
	Amenities   []string
}

// Page is one raw candidate page from the gateway. Pages may overlap: the
// same listing id can appear on many pages.
type Page struct {
	Items   []Listing
	HasMore bool
}
