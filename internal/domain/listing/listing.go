// Package listing holds the upstream property candidate record and the
// query/page shapes exchanged with the listings gateway.
package listing

// Listing is one property candidate as returned by the upstream gateway.
// The canonical ID is the upstream listing id and is the dedup key.
type Listing struct {
	id           string
	title        string
	city         string
	neighborhood string
	listingType  string
	numerics     map[string]float64
	tags         map[string]string
	flags        map[string]bool
	amenities    []string
}

// Reconstruct rebuilds a listing from stored or upstream data without
// validation. Gateway and cache DTOs are the only callers.
func Reconstruct(
	id, title, city, neighborhood, listingType string,
	numerics map[string]float64, tags map[string]string,
	flags map[string]bool, amenities []string,
) Listing {
	return Listing{
		id: id, title: title, city: city, neighborhood: neighborhood,
		listingType: listingType, numerics: numerics, tags: tags,
		flags: flags, amenities: amenities,
	}
}

// ID returns the canonical upstream identifier.
func (l *Listing) ID() string { return l.id }

// Title returns the listing title.
func (l *Listing) Title() string { return l.title }

// City returns the listing city.
func (l *Listing) City() string { return l.city }

// Neighborhood returns the listing neighborhood, may be empty.
func (l *Listing) Neighborhood() string { return l.neighborhood }

// ListingType returns "sale" or "rent".
func (l *Listing) ListingType() string { return l.listingType }

// Numerics returns the numeric attributes (price, bedrooms, area_sqm, ...).
func (l *Listing) Numerics() map[string]float64 { return l.numerics }

// Tags returns the string attributes (view, exposure, ...).
func (l *Listing) Tags() map[string]string { return l.tags }

// Flags returns the boolean attributes (pets_allowed, furnished, ...).
func (l *Listing) Flags() map[string]bool { return l.flags }

// Amenities returns the amenity list.
func (l *Listing) Amenities() []string { return l.amenities }

// Numeric looks up a numeric attribute.
func (l *Listing) Numeric(name string) (float64, bool) {
	v, ok := l.numerics[name]
	return v, ok
}

// Tag looks up a string attribute.
func (l *Listing) Tag(name string) (string, bool) {
	v, ok := l.tags[name]
	return v, ok
}

// Flag looks up a boolean attribute.
func (l *Listing) Flag(name string) (bool, bool) {
	v, ok := l.flags[name]
	return v, ok
}
