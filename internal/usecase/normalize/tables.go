package normalize

import "github.com/kailas-cloud/homescout/internal/domain/criteria"

// fieldDef fixes a field's kind, priority, relaxation tier and matching
// aids. The classification is static: a field is always must-have or always
// nice-to-have, never decided per request.
type fieldDef struct {
	kind        criteria.Kind
	priority    criteria.Priority
	tier        int
	restriction bool
	tolerance   float64
	synonyms    map[string][]string
}

// Relaxation tiers for nice-to-have fields: tier 1 (view/exposure/floor)
// drops before tier 2 (amenities, financial caps, comfort flags).
const (
	tierStyle     = 1
	tierAmenities = 2
)

var fieldTable = map[string]fieldDef{
	// Primary fields.
	"bedrooms": {kind: criteria.Numeric, priority: criteria.MustHave, tolerance: 1},
	"price":    {kind: criteria.Numeric, priority: criteria.MustHave, tolerance: 50000},

	// Restriction booleans: stated requirements that are never dropped.
	"pets_allowed":      {kind: criteria.Boolean, priority: criteria.MustHave, restriction: true},
	"wheelchair_access": {kind: criteria.Boolean, priority: criteria.MustHave, restriction: true},

	// Style/view fields, first to be relaxed.
	"floor": {kind: criteria.Numeric, priority: criteria.NiceToHave, tier: tierStyle, tolerance: 5},
	"view": {
		kind: criteria.Enum, priority: criteria.NiceToHave, tier: tierStyle,
		synonyms: map[string][]string{
			"lake": {"water", "waterfront"},
			"sea":  {"ocean", "water"},
			"city": {"skyline", "urban"},
			"park": {"garden", "green"},
		},
	},
	"exposure": {
		kind: criteria.Enum, priority: criteria.NiceToHave, tier: tierStyle,
		synonyms: map[string][]string{
			"south": {"s", "southern"},
			"north": {"n", "northern"},
			"east":  {"e", "eastern"},
			"west":  {"w", "western"},
		},
	},

	// Amenity/comfort/financial fields, relaxed last.
	"bathrooms":           {kind: criteria.Numeric, priority: criteria.NiceToHave, tier: tierAmenities, tolerance: 0.5},
	"area_sqm":            {kind: criteria.Numeric, priority: criteria.NiceToHave, tier: tierAmenities, tolerance: 200},
	"maintenance_fee_max": {kind: criteria.Numeric, priority: criteria.NiceToHave, tier: tierAmenities},
	"amenities":           {kind: criteria.Array, priority: criteria.NiceToHave, tier: tierAmenities},
	"furnished":           {kind: criteria.Boolean, priority: criteria.NiceToHave, tier: tierAmenities},
	"has_pool":            {kind: criteria.Boolean, priority: criteria.NiceToHave, tier: tierAmenities},
	"has_parking":         {kind: criteria.Boolean, priority: criteria.NiceToHave, tier: tierAmenities},
}
