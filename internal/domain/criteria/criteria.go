// Package criteria defines the typed search criteria model: one Spec per
// field, tagged by kind and priority, assembled into an immutable Criteria
// set that the relaxation planner can narrow without mutating the original.
package criteria

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind is the declared type of a criterion value.
type Kind string

// Criterion kinds.
const (
	Numeric  Kind = "numeric"
	Enum     Kind = "enum"
	Boolean  Kind = "boolean"
	Array    Kind = "array"
	Location Kind = "location"
)

// Priority governs whether a field may ever be relaxed.
type Priority string

// Field priorities.
const (
	MustHave   Priority = "must_have"
	NiceToHave Priority = "nice_to_have"
)

// ListingType is the sale/rent dimension of a search.
type ListingType string

// Listing types. Both means the user did not specify and must see both.
const (
	Sale ListingType = "sale"
	Rent ListingType = "rent"
	Both ListingType = "both"
)

// IsValid checks if the listing type is one of the supported values.
func (t ListingType) IsValid() bool {
	return t == Sale || t == Rent || t == Both
}

// Spec is one normalized criterion: a named, typed constraint with a
// priority, an optional tolerance (numeric) and optional synonyms (enum).
type Spec struct {
	name        string
	kind        Kind
	priority    Priority
	tier        int // relaxation tier for nice-to-have fields; lower drops first
	restriction bool

	number    float64
	tolerance float64
	text      string
	synonyms  []string
	flag      bool
	items     []string
}

// NewNumeric creates a numeric criterion with a non-negative tolerance.
func NewNumeric(name string, value, tolerance float64, priority Priority, tier int) (Spec, error) {
	if name == "" {
		return Spec{}, fmt.Errorf("criterion name is required")
	}
	if tolerance < 0 {
		return Spec{}, fmt.Errorf("tolerance for %q must be non-negative, got %v", name, tolerance)
	}
	return Spec{name: name, kind: Numeric, priority: priority, tier: tier, number: value, tolerance: tolerance}, nil
}

// NewEnum creates a string/enum criterion. Value and synonyms are lower-cased.
func NewEnum(name, value string, synonyms []string, priority Priority, tier int) (Spec, error) {
	if name == "" {
		return Spec{}, fmt.Errorf("criterion name is required")
	}
	if value == "" {
		return Spec{}, fmt.Errorf("value for %q is required", name)
	}
	lowered := make([]string, len(synonyms))
	for i, s := range synonyms {
		lowered[i] = strings.ToLower(s)
	}
	sort.Strings(lowered)
	return Spec{
		name: name, kind: Enum, priority: priority, tier: tier,
		text: strings.ToLower(value), synonyms: lowered,
	}, nil
}

// NewBool creates a boolean criterion. Restriction marks fields that may
// never be dropped at any relaxation level (pet policy, accessibility).
func NewBool(name string, value bool, priority Priority, restriction bool, tier int) (Spec, error) {
	if name == "" {
		return Spec{}, fmt.Errorf("criterion name is required")
	}
	return Spec{name: name, kind: Boolean, priority: priority, tier: tier, flag: value, restriction: restriction}, nil
}

// NewArray creates a set criterion (e.g. requested amenities).
func NewArray(name string, items []string, priority Priority, tier int) (Spec, error) {
	if name == "" {
		return Spec{}, fmt.Errorf("criterion name is required")
	}
	if len(items) == 0 {
		return Spec{}, fmt.Errorf("items for %q are required", name)
	}
	lowered := make([]string, len(items))
	for i, s := range items {
		lowered[i] = strings.ToLower(s)
	}
	sort.Strings(lowered)
	return Spec{name: name, kind: Array, priority: priority, tier: tier, items: lowered}, nil
}

// Name returns the field name.
func (s *Spec) Name() string { return s.name }

// Kind returns the criterion kind.
func (s *Spec) Kind() Kind { return s.kind }

// Priority returns the criterion priority.
func (s *Spec) Priority() Priority { return s.priority }

// Tier returns the relaxation tier. Tier 1 fields drop before tier 2.
func (s *Spec) Tier() int { return s.tier }

// IsRestriction reports whether the field may never be dropped.
func (s *Spec) IsRestriction() bool { return s.restriction }

// Number returns the requested numeric value.
func (s *Spec) Number() float64 { return s.number }

// Tolerance returns the accepted absolute delta for numeric fields.
func (s *Spec) Tolerance() float64 { return s.tolerance }

// Text returns the requested enum value (lower-cased).
func (s *Spec) Text() string { return s.text }

// Synonyms returns the interchangeable enum values (lower-cased, sorted).
func (s *Spec) Synonyms() []string { return s.synonyms }

// Flag returns the requested boolean value.
func (s *Spec) Flag() bool { return s.flag }

// Items returns the requested set items (lower-cased, sorted).
func (s *Spec) Items() []string { return s.items }

// Matches reports whether v satisfies an enum criterion (exact or synonym).
func (s *Spec) Matches(v string) bool {
	v = strings.ToLower(v)
	if v == s.text {
		return true
	}
	for _, syn := range s.synonyms {
		if v == syn {
			return true
		}
	}
	return false
}

// Criteria is an immutable set of normalized criteria plus the search scope.
// Narrowing operations return copies; the planner never mutates in place.
type Criteria struct {
	fields      map[string]Spec
	location    string
	listingType ListingType
}

// New assembles a criteria set. Location is lower-cased; an unspecified
// listing type is preserved as Both, never defaulted to Sale.
func New(fields []Spec, location string, listingType ListingType) (Criteria, error) {
	if listingType == "" {
		listingType = Both
	}
	if !listingType.IsValid() {
		return Criteria{}, fmt.Errorf("unknown listing type %q", listingType)
	}
	m := make(map[string]Spec, len(fields))
	for _, f := range fields {
		if _, dup := m[f.name]; dup {
			return Criteria{}, fmt.Errorf("duplicate criterion %q", f.name)
		}
		m[f.name] = f
	}
	return Criteria{fields: m, location: strings.ToLower(strings.TrimSpace(location)), listingType: listingType}, nil
}

// Fields returns all criteria sorted by field name.
func (c Criteria) Fields() []Spec {
	out := make([]Spec, 0, len(c.fields))
	for _, f := range c.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Get returns the criterion for a field name.
func (c Criteria) Get(name string) (Spec, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Len returns the number of field criteria (location excluded).
func (c Criteria) Len() int { return len(c.fields) }

// Location returns the requested location (lower-cased), may be empty.
func (c Criteria) Location() string { return c.location }

// ListingType returns the sale/rent dimension.
func (c Criteria) ListingType() ListingType { return c.listingType }

// WithLocation returns a copy scoped to a different location.
func (c Criteria) WithLocation(location string) Criteria {
	out := c.clone()
	out.location = strings.ToLower(strings.TrimSpace(location))
	return out
}

// DropTier returns a copy without nice-to-have fields at or below the given
// tier, plus the names of the dropped fields (sorted).
func (c Criteria) DropTier(tier int) (Criteria, []string) {
	return c.drop(func(f Spec) bool {
		return f.priority == NiceToHave && f.tier <= tier
	})
}

// CriticalOnly returns a copy keeping only must-have fields, plus the names
// of the dropped fields.
func (c Criteria) CriticalOnly() (Criteria, []string) {
	return c.drop(func(f Spec) bool { return f.priority == NiceToHave })
}

// LocationOnly returns a copy keeping only restriction fields (which are
// never dropped), plus the names of the dropped fields.
func (c Criteria) LocationOnly() (Criteria, []string) {
	return c.drop(func(f Spec) bool { return !f.restriction })
}

// Restrictions returns the restriction criteria sorted by field name.
func (c Criteria) Restrictions() []Spec {
	var out []Spec
	for _, f := range c.fields {
		if f.restriction {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (c Criteria) drop(unwanted func(Spec) bool) (Criteria, []string) {
	out := Criteria{fields: make(map[string]Spec, len(c.fields)), location: c.location, listingType: c.listingType}
	var dropped []string
	for name, f := range c.fields {
		if unwanted(f) {
			dropped = append(dropped, name)
			continue
		}
		out.fields[name] = f
	}
	sort.Strings(dropped)
	return out, dropped
}

func (c Criteria) clone() Criteria {
	out := Criteria{fields: make(map[string]Spec, len(c.fields)), location: c.location, listingType: c.listingType}
	for name, f := range c.fields {
		out.fields[name] = f
	}
	return out
}

// Fingerprint returns a stable hash of the normalized criteria, used as a
// cache key component. Equal criteria always produce equal fingerprints.
func (c Criteria) Fingerprint() string {
	var b strings.Builder
	b.WriteString(c.location)
	b.WriteByte('|')
	b.WriteString(string(c.listingType))
	for _, f := range c.Fields() {
		b.WriteByte('|')
		b.WriteString(f.name)
		b.WriteByte(':')
		b.WriteString(string(f.kind))
		b.WriteByte(':')
		b.WriteString(string(f.priority))
		switch f.kind {
		case Numeric:
			b.WriteString(strconv.FormatFloat(f.number, 'g', -1, 64))
			b.WriteByte('~')
			b.WriteString(strconv.FormatFloat(f.tolerance, 'g', -1, 64))
		case Enum:
			b.WriteString(f.text)
			b.WriteByte('~')
			b.WriteString(strings.Join(f.synonyms, ","))
		case Boolean:
			b.WriteString(strconv.FormatBool(f.flag))
		case Array:
			b.WriteString(strings.Join(f.items, ","))
		}
	}
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}
