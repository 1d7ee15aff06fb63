// Package relax implements the progressive search-relaxation state machine:
// it drives progressively looser queries against the listings gateway until
// a sufficiently large scored result set is produced, recording which fields
// were loosened along the way.
package relax

import (
	"context"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/geo"
	"github.com/kailas-cloud/homescout/internal/domain/listing"
	"github.com/kailas-cloud/homescout/internal/domain/match"
	"github.com/kailas-cloud/homescout/internal/logger"
	"github.com/kailas-cloud/homescout/internal/usecase/score"
)

const (
	defaultMinResults    = 1
	defaultTargetResults = 10
	defaultMaxPages      = 20
)

// Relaxation tiers mirror the normalizer's classification: style fields
// (view, exposure, floor) drop before amenity and financial-cap fields.
const (
	firstTier = 1
	lastTier  = 2
)

// Planner runs the fallback ladder for one criteria set.
type Planner struct {
	gw     Gateway
	atlas  *geo.Atlas
	levels *prometheus.CounterVec

	minResults    int
	targetResults int
	maxPages      int
}

// New creates a planner with default thresholds.
func New(gw Gateway, atlas *geo.Atlas) *Planner {
	return &Planner{
		gw:            gw,
		atlas:         atlas,
		minResults:    defaultMinResults,
		targetResults: defaultTargetResults,
		maxPages:      defaultMaxPages,
	}
}

// WithThresholds sets the descent-stopping minimum and the desired "full"
// result count.
func (p *Planner) WithThresholds(minResults, targetResults int) *Planner {
	if minResults > 0 {
		p.minResults = minResults
	}
	if targetResults > 0 {
		p.targetResults = targetResults
	}
	return p
}

// WithMaxPages caps how many gateway pages one query may consume.
func (p *Planner) WithMaxPages(n int) *Planner {
	if n > 0 {
		p.maxPages = n
	}
	return p
}

// WithMetrics attaches the relaxation level counter.
func (p *Planner) WithMetrics(levels *prometheus.CounterVec) *Planner {
	p.levels = levels
	return p
}

// Run walks the fallback ladder until a state produces at least the minimum
// candidate count, then stops. States never repeat and never get stricter.
// Gateway failures inside a state count as zero candidates for that state;
// Run itself never fails. When the whole ladder stays below the minimum, the
// largest set any state produced is still served; "none" is reserved for
// truly zero candidates.
func (p *Planner) Run(ctx context.Context, c criteria.Criteria) Plan {
	log := logger.FromContext(ctx)

	var degraded []string
	widest := c.Location()
	var best outcome

	state := StateExact
	for {
		var out outcome
		switch state {
		case StateExact:
			out = p.attemptQuery(ctx, c, state.Level(), nil, &degraded)
		case StateRelaxed:
			out = p.attemptRelaxed(ctx, c, c.Location(), nil, &degraded)
		case StateGeoExpansion:
			out = p.attemptGeo(ctx, c, &widest, &degraded)
		case StateCriticalOnly:
			narrowed, dropped := c.WithLocation(widest).CriticalOnly()
			out = p.attemptQuery(ctx, narrowed, state.Level(),
				p.relaxedFields(c, widest, dropped), &degraded)
		case StateLocationOnly:
			narrowed, dropped := c.WithLocation(widest).LocationOnly()
			out = p.attemptQuery(ctx, narrowed, state.Level(),
				p.relaxedFields(c, widest, dropped), &degraded)
		case StateFallback:
			out = p.attemptFallback(ctx, c, widest, &degraded)
		}

		if len(out.candidates) >= p.minResults {
			log.Info("relaxation settled",
				zap.String("state", string(state)),
				zap.Int("candidates", len(out.candidates)),
				zap.Strings("relaxed_fields", out.relaxedFields),
			)
			p.observe(out.level)
			return Plan{
				Results:       out.candidates,
				Level:         out.level,
				RelaxedFields: out.relaxedFields,
				Reason:        reasonFor(out.level),
			}
		}
		if len(out.candidates) > len(best.candidates) {
			best = out
		}

		next, ok := Next(state)
		if !ok {
			break
		}
		state = next
	}

	if len(best.candidates) > 0 {
		log.Info("relaxation exhausted below minimum; serving best attempt",
			zap.String("level", string(best.level)),
			zap.Int("candidates", len(best.candidates)),
		)
		p.observe(best.level)
		return Plan{
			Results:       best.candidates,
			Level:         best.level,
			RelaxedFields: best.relaxedFields,
			Reason:        reasonFor(best.level),
		}
	}

	log.Info("relaxation exhausted", zap.Strings("degraded", degraded))
	p.observe(match.None)
	return Plan{
		Results: []match.Result{},
		Level:   match.None,
		Reason:  noneReason(degraded),
	}
}

// attemptRelaxed drops nice-to-have fields one tier at a time, returning the
// first tier that reaches the minimum, or the best attempt otherwise.
func (p *Planner) attemptRelaxed(
	ctx context.Context, c criteria.Criteria, scope string,
	base []string, degraded *[]string,
) outcome {
	level := match.Relaxed
	if len(base) > 0 {
		// Relaxing inside a wider geographic scope keeps the geo level.
		level = match.GeoExpanded
	}

	best := outcome{level: level}
	for tier := firstTier; tier <= lastTier; tier++ {
		narrowed, dropped := c.DropTier(tier)
		if len(dropped) == 0 {
			continue
		}
		relaxed := mergeFields(base, dropped)
		out := p.attemptQuery(ctx, narrowed.WithLocation(scope), level, relaxed, degraded)
		if len(out.candidates) >= p.minResults {
			return out
		}
		if len(out.candidates) > len(best.candidates) {
			best = out
		}
	}
	return best
}

// attemptGeo widens the scope through the atlas, re-running exact and
// relaxed queries at each wider scope before trying the next. The widest
// pointer tracks the loosest scope attempted so later states inherit it.
func (p *Planner) attemptGeo(
	ctx context.Context, c criteria.Criteria,
	widest *string, degraded *[]string,
) outcome {
	best := outcome{level: match.GeoExpanded}
	if p.atlas == nil || c.Location() == "" {
		return best
	}

	for _, scope := range p.atlas.Widen(c.Location()) {
		*widest = scope

		out := p.attemptQuery(ctx, c.WithLocation(scope), match.GeoExpanded,
			[]string{"location"}, degraded)
		if len(out.candidates) >= p.minResults {
			return out
		}
		if len(out.candidates) > len(best.candidates) {
			best = out
		}

		out = p.attemptRelaxed(ctx, c, scope, []string{"location"}, degraded)
		if len(out.candidates) >= p.minResults {
			return out
		}
		if len(out.candidates) > len(best.candidates) {
			best = out
		}
	}
	return best
}

// attemptFallback serves popular listings for the broadest known scope.
// Stated restrictions still filter the popular set: a result that violates
// an explicit restriction is worse than no result.
func (p *Planner) attemptFallback(
	ctx context.Context, c criteria.Criteria,
	widest string, degraded *[]string,
) outcome {
	log := logger.FromContext(ctx)

	scope := widest
	if p.atlas != nil && scope != "" {
		scope = p.atlas.BroadestKnown(scope)
	}

	popular, err := p.gw.FetchPopular(ctx, scope, p.targetResults)
	if err != nil {
		log.Warn("popular fetch failed", zap.String("scope", scope), zap.Error(err))
		*degraded = append(*degraded, err.Error())
		return outcome{level: match.Fallback}
	}

	restrictions, dropped := c.LocationOnly()
	relaxed := p.relaxedFields(c, widest, dropped)

	var results []match.Result
	for _, l := range score.Dedup(popular) {
		if _, ok := score.Evaluate(l, restrictions); !ok {
			continue
		}
		results = append(results, match.New(l, match.Fallback, 0, relaxed))
	}
	return outcome{candidates: results, relaxedFields: relaxed, level: match.Fallback}
}

// attemptQuery fetches, dedups and scores one query, ordering survivors by
// score descending. A candidate's relaxed fields also name the nice-to-have
// fields it satisfied only partially.
func (p *Planner) attemptQuery(
	ctx context.Context, c criteria.Criteria, level match.Level,
	relaxed []string, degraded *[]string,
) outcome {
	raw := p.fetchAll(ctx, buildQuery(c), degraded)

	var results []match.Result
	for _, l := range score.Dedup(raw) {
		ev, ok := score.Evaluate(l, c)
		if !ok {
			continue
		}
		fields := relaxed
		if len(ev.Unsatisfied) > 0 {
			fields = mergeFields(relaxed, ev.Unsatisfied)
		}
		results = append(results, match.New(l, level, ev.Score, fields))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
	return outcome{candidates: results, relaxedFields: relaxed, level: level}
}

// fetchAll pages through the gateway until the last page, the page cap, or
// an error. A failed call ends the fetch with whatever was collected so far;
// the outage is recorded and the ladder moves on.
func (p *Planner) fetchAll(
	ctx context.Context, q listing.Query, degraded *[]string,
) []listing.Listing {
	log := logger.FromContext(ctx)

	var collected []listing.Listing
	for page := 0; page < p.maxPages; page++ {
		pg, err := p.gw.FetchPage(ctx, q, page)
		if err != nil {
			log.Warn("gateway fetch failed",
				zap.String("location", q.Location),
				zap.Int("page", page),
				zap.Error(err),
			)
			*degraded = append(*degraded, err.Error())
			break
		}
		collected = append(collected, pg.Items...)
		if !pg.HasMore {
			break
		}
	}
	return collected
}

// relaxedFields merges the dropped field names with "location" when the
// scope was widened beyond the requested one.
func (p *Planner) relaxedFields(c criteria.Criteria, widest string, dropped []string) []string {
	if widest != c.Location() {
		return mergeFields([]string{"location"}, dropped)
	}
	return dropped
}

func mergeFields(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func buildQuery(c criteria.Criteria) listing.Query {
	q := listing.Query{
		Location:    c.Location(),
		ListingType: string(c.ListingType()),
	}
	for _, f := range c.Fields() {
		switch f.Kind() {
		case criteria.Numeric:
			if q.Numerics == nil {
				q.Numerics = make(map[string]float64)
			}
			q.Numerics[f.Name()] = f.Number()
		case criteria.Enum:
			if q.Tags == nil {
				q.Tags = make(map[string]string)
			}
			q.Tags[f.Name()] = f.Text()
		case criteria.Boolean:
			if q.Flags == nil {
				q.Flags = make(map[string]bool)
			}
			q.Flags[f.Name()] = f.Flag()
		case criteria.Array:
			q.Amenities = append(q.Amenities, f.Items()...)
		}
	}
	return q
}

func (p *Planner) observe(level match.Level) {
	if p.levels != nil {
		p.levels.WithLabelValues(string(level)).Inc()
	}
}

func reasonFor(level match.Level) string {
	switch level {
	case match.Exact:
		return ""
	case match.Relaxed:
		return "no exact matches; loosened optional preferences"
	case match.GeoExpanded:
		return "no matches in the requested area; showing nearby options"
	case match.CriticalOnly:
		return "showing results matching only your key requirements"
	case match.LocationOnly:
		return "showing everything available in the area"
	case match.Fallback:
		return "no criteria matched; showing popular listings in the area"
	default:
		return ""
	}
}

func noneReason(degraded []string) string {
	reason := "no properties found even at the broadest search"
	if len(degraded) > 0 {
		reason += "; the listings service was partially unavailable (" +
			strings.Join(dedupStrings(degraded), "; ") + ")"
	}
	return reason
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
