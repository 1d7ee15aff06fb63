package relax

import "github.com/kailas-cloud/homescout/internal/domain/match"

// State is one step of the fallback ladder. The planner only ever moves
// forward through states, never back to a stricter one.
type State string

// Fallback states, strictest first.
const (
	StateExact        State = "exact"
	StateRelaxed      State = "relaxed"
	StateGeoExpansion State = "geo_expansion"
	StateCriticalOnly State = "critical_only"
	StateLocationOnly State = "location_only"
	StateFallback     State = "fallback"
)

var transitions = map[State]State{
	StateExact:        StateRelaxed,
	StateRelaxed:      StateGeoExpansion,
	StateGeoExpansion: StateCriticalOnly,
	StateCriticalOnly: StateLocationOnly,
	StateLocationOnly: StateFallback,
}

// Next returns the following looser state. The second return is false at the
// end of the ladder.
func Next(s State) (State, bool) {
	n, ok := transitions[s]
	return n, ok
}

// Level maps a state to the match level stamped on its results.
func (s State) Level() match.Level {
	switch s {
	case StateExact:
		return match.Exact
	case StateRelaxed:
		return match.Relaxed
	case StateGeoExpansion:
		return match.GeoExpanded
	case StateCriticalOnly:
		return match.CriticalOnly
	case StateLocationOnly:
		return match.LocationOnly
	case StateFallback:
		return match.Fallback
	default:
		return match.None
	}
}
