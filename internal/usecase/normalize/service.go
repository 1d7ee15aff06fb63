// Package normalize converts raw extractor output into typed,
// priority-resolved search criteria. Normalization is a pure function of its
// input: fixed tolerance, synonym and priority tables, no side effects.
package normalize

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/homescout/internal/domain"
	"github.com/kailas-cloud/homescout/internal/domain/criteria"
)

// Service is the criteria normalizer.
type Service struct{}

// New creates a normalizer.
func New() *Service {
	return &Service{}
}

// Normalize classifies and annotates every raw field. Fields absent from the
// static table keep their inferred kind with zero tolerance, no synonyms and
// nice-to-have priority, so every criterion leaves here with a resolved
// priority. Returns domain.ErrInvalidCriteria when a value cannot be coerced
// to its declared kind.
func (s *Service) Normalize(raw criteria.Raw) (criteria.Criteria, error) {
	specs := make([]criteria.Spec, 0, len(raw.Fields))

	for name, value := range raw.Fields {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return criteria.Criteria{}, fmt.Errorf("%w: empty field name", domain.ErrInvalidCriteria)
		}

		def, known := fieldTable[name]
		if !known {
			def = inferDef(value)
		}

		spec, err := buildSpec(name, value, def)
		if err != nil {
			return criteria.Criteria{}, fmt.Errorf("%w: field %q: %w", domain.ErrInvalidCriteria, name, err)
		}
		specs = append(specs, spec)
	}

	c, err := criteria.New(specs, raw.Location, raw.ListingType)
	if err != nil {
		return criteria.Criteria{}, fmt.Errorf("%w: %w", domain.ErrInvalidCriteria, err)
	}
	return c, nil
}

func buildSpec(name string, value any, def fieldDef) (criteria.Spec, error) {
	switch def.kind {
	case criteria.Numeric:
		n, err := toFloat(value)
		if err != nil {
			return criteria.Spec{}, err
		}
		return criteria.NewNumeric(name, n, def.tolerance, def.priority, def.tier)

	case criteria.Enum:
		t, err := toString(value)
		if err != nil {
			return criteria.Spec{}, err
		}
		return criteria.NewEnum(name, t, def.synonyms[strings.ToLower(t)], def.priority, def.tier)

	case criteria.Boolean:
		b, ok := value.(bool)
		if !ok {
			return criteria.Spec{}, fmt.Errorf("cannot coerce %T to boolean", value)
		}
		return criteria.NewBool(name, b, def.priority, def.restriction, def.tier)

	case criteria.Array:
		items, err := toStrings(value)
		if err != nil {
			return criteria.Spec{}, err
		}
		return criteria.NewArray(name, items, def.priority, def.tier)

	default:
		return criteria.Spec{}, fmt.Errorf("unsupported kind %q", def.kind)
	}
}

// inferDef derives a definition for fields missing from the static table:
// kind follows the Go value type, tolerance is zero (exact) and priority is
// nice-to-have at the last tier.
func inferDef(value any) fieldDef {
	def := fieldDef{priority: criteria.NiceToHave, tier: tierAmenities}
	switch value.(type) {
	case bool:
		def.kind = criteria.Boolean
	case string:
		def.kind = criteria.Enum
	case []any, []string:
		def.kind = criteria.Array
	default:
		def.kind = criteria.Numeric
	}
	return def
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to number", value)
	}
}

func toString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("cannot coerce %T to string", value)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("empty string value")
	}
	return s, nil
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("array item %d: cannot coerce %T to string", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to array", value)
	}
}
