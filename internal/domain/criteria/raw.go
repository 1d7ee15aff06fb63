package criteria

// Raw is the unnormalized input from the natural-language extractor: a
// mapping of field name to scalar/array value plus an optional resolved
// location and listing type. The extractor itself is an external
// collaborator; Raw is its only contract with this service.
type Raw struct {
	Fields      map[string]any
	Location    string
	ListingType ListingType
}
