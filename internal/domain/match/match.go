// Package match defines the relaxation level enum and the immutable
// per-candidate match result.
package match

import "github.com/kailas-cloud/homescout/internal/domain/listing"

// Level is one of the fallback states, ordered by looseness.
type Level string

// Relaxation levels, strictest first.
const (
	Exact        Level = "exact"
	Relaxed      Level = "relaxed"
	GeoExpanded  Level = "geo_expanded"
	CriticalOnly Level = "critical_only"
	LocationOnly Level = "location_only"
	Fallback     Level = "fallback"
	// None is the terminal level when every fallback state came up empty.
	None Level = "none"
)

var looseness = map[Level]int{
	Exact:        0,
	Relaxed:      1,
	GeoExpanded:  2,
	CriticalOnly: 3,
	LocationOnly: 4,
	Fallback:     5,
	None:         6,
}

// IsValid checks if the level is one of the supported values.
func (l Level) IsValid() bool {
	_, ok := looseness[l]
	return ok
}

// Looseness returns the level's position in the fallback order. Higher is
// looser.
func (l Level) Looseness() int { return looseness[l] }

// Coarsest returns the looser of two levels.
func Coarsest(a, b Level) Level {
	if b.Looseness() > a.Looseness() {
		return b
	}
	return a
}

// Result wraps one candidate with its match level, score and the fields that
// were loosened to produce it. Results are never mutated after creation; a
// new planner run replaces them wholesale.
type Result struct {
	candidate     listing.Listing
	level         Level
	score         float64
	relaxedFields []string
}

// New creates a match result for a candidate.
func New(candidate listing.Listing, level Level, score float64, relaxedFields []string) Result {
	return Result{candidate: candidate, level: level, score: score, relaxedFields: relaxedFields}
}

// Candidate returns the wrapped listing record.
func (r *Result) Candidate() listing.Listing { return r.candidate }

// ID returns the candidate's canonical identifier (the dedup key).
func (r *Result) ID() string { return r.candidate.ID() }

// Level returns the relaxation level the candidate was found at.
func (r *Result) Level() Level { return r.level }

// Score returns the relevance score in [0,1].
func (r *Result) Score() float64 { return r.score }

// RelaxedFields returns the field names loosened to reach this candidate.
func (r *Result) RelaxedFields() []string { return r.relaxedFields }
