package relax

import "github.com/kailas-cloud/homescout/internal/domain/match"

// outcome is the result of attempting one state: the surviving scored
// candidates plus which fields were loosened to get them. Gateway failures
// inside a state are absorbed into degraded reasons, never raised.
type outcome struct {
	candidates    []match.Result
	relaxedFields []string
	level         match.Level
}

// Plan is the planner's final answer: the first state whose candidate count
// reached the minimum, the largest below-minimum attempt when no state
// reached it, or the explicit terminal "none" result only when every state
// came up empty. A Plan is always a normal return value; gateway outages
// degrade it, they never fail it.
type Plan struct {
	Results       []match.Result
	Level         match.Level
	RelaxedFields []string
	Reason        string
}
