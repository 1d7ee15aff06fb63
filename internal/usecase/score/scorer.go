// Package score evaluates candidates against normalized criteria and
// removes duplicate candidates by canonical id.
package score

import (
	"math"

	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/listing"
)

// Field weights: must-have fields count double in the weighted average.
const (
	weightMustHave   = 2.0
	weightNiceToHave = 1.0
)

// Array match tiers map the fraction of requested items present to a fixed
// score multiplier.
const (
	tierComplete = 1.0
	tierGood     = 0.9
	tierPartial  = 0.7
	tierWeak     = 0.5
)

// Evaluation is the outcome of scoring one candidate that passed all
// must-have checks.
type Evaluation struct {
	// Score is the weighted average of field scores in [0,1].
	Score float64
	// Unsatisfied lists nice-to-have fields that earned less than full
	// credit.
	Unsatisfied []string
}

// Evaluate scores a candidate against criteria. Returns false when any
// must-have field fails outright; such candidates never appear in output.
func Evaluate(l listing.Listing, c criteria.Criteria) (Evaluation, bool) {
	var weighted, total float64
	var unsatisfied []string

	for _, f := range c.Fields() {
		fieldScore, ok := fieldScore(l, &f)

		weight := weightNiceToHave
		if f.Priority() == criteria.MustHave {
			weight = weightMustHave
		}

		if !ok && f.Priority() == criteria.MustHave {
			return Evaluation{}, false
		}

		if f.Priority() == criteria.NiceToHave && fieldScore < 1.0 {
			unsatisfied = append(unsatisfied, f.Name())
		}

		weighted += weight * fieldScore
		total += weight
	}

	if total == 0 {
		// No scorable fields (location-only criteria): trivially exact.
		return Evaluation{Score: 1.0}, true
	}
	return Evaluation{Score: weighted / total, Unsatisfied: unsatisfied}, true
}

// fieldScore returns the candidate's credit for one field and whether the
// field is satisfied at all. Location and listing-type filtering happen at
// the gateway, so those kinds contribute nothing here.
func fieldScore(l listing.Listing, f *criteria.Spec) (float64, bool) {
	switch f.Kind() {
	case criteria.Numeric:
		v, ok := l.Numeric(f.Name())
		if !ok {
			return 0, false
		}
		return numericScore(v, f.Number(), f.Tolerance())

	case criteria.Enum:
		v, ok := l.Tag(f.Name())
		if !ok || !f.Matches(v) {
			return 0, false
		}
		return 1.0, true

	case criteria.Boolean:
		v, ok := l.Flag(f.Name())
		if !ok || v != f.Flag() {
			return 0, false
		}
		return 1.0, true

	case criteria.Array:
		return arrayScore(l.Amenities(), f.Items())

	default:
		return 0, true
	}
}

// numericScore decays linearly from 1.0 at the requested value to 0.0 at the
// tolerance boundary. Zero tolerance means exact match only.
func numericScore(v, requested, tolerance float64) (float64, bool) {
	diff := math.Abs(v - requested)
	if tolerance == 0 {
		if diff == 0 {
			return 1.0, true
		}
		return 0, false
	}
	if diff > tolerance {
		return 0, false
	}
	return 1.0 - diff/tolerance, true
}

// arrayScore buckets the fraction of requested items present into fixed
// tiers. Arrays never fail outright: the weak tier's multiplier applies
// whatever the field's priority.
func arrayScore(present, requested []string) (float64, bool) {
	if len(requested) == 0 {
		return 1.0, true
	}

	have := make(map[string]struct{}, len(present))
	for _, p := range present {
		have[p] = struct{}{}
	}

	found := 0
	for _, want := range requested {
		if _, ok := have[want]; ok {
			found++
		}
	}

	frac := float64(found) / float64(len(requested))
	switch {
	case frac == 1.0:
		return tierComplete, true
	case frac >= 0.8:
		return tierGood, true
	case frac >= 0.5:
		return tierPartial, true
	default:
		return tierWeak, true
	}
}
