package relax

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/homescout/internal/domain/criteria"
	"github.com/kailas-cloud/homescout/internal/domain/geo"
	"github.com/kailas-cloud/homescout/internal/domain/listing"
	"github.com/kailas-cloud/homescout/internal/domain/match"
)

// fakeGateway answers FetchPage through a caller-supplied function and
// records every query so tests can assert on the descent order.
type fakeGateway struct {
	fetch   func(q listing.Query, page int) (listing.Page, error)
	popular func(location string, limit int) ([]listing.Listing, error)

	queries []listing.Query
}

func (g *fakeGateway) FetchPage(_ context.Context, q listing.Query, page int) (listing.Page, error) {
	g.queries = append(g.queries, q)
	if g.fetch == nil {
		return listing.Page{}, nil
	}
	return g.fetch(q, page)
}

func (g *fakeGateway) FetchPopular(_ context.Context, location string, limit int) ([]listing.Listing, error) {
	if g.popular == nil {
		return nil, nil
	}
	return g.popular(location, limit)
}

func unit(id, neighborhood string, numerics map[string]float64, flags map[string]bool) listing.Listing {
	return listing.Reconstruct(id, "Unit "+id, "riverton", neighborhood, "rent",
		numerics, nil, flags, nil)
}

func testCriteria(t *testing.T, location string, specs ...criteria.Spec) criteria.Criteria {
	t.Helper()
	c, err := criteria.New(specs, location, criteria.Both)
	if err != nil {
		t.Fatalf("criteria.New: %v", err)
	}
	return c
}

func bedrooms(t *testing.T, n float64) criteria.Spec {
	t.Helper()
	s, err := criteria.NewNumeric("bedrooms", n, 1, criteria.MustHave, 0)
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}
	return s
}

func viewPref(t *testing.T, v string) criteria.Spec {
	t.Helper()
	s, err := criteria.NewEnum("view", v, nil, criteria.NiceToHave, 1)
	if err != nil {
		t.Fatalf("NewEnum: %v", err)
	}
	return s
}

func petsRestriction(t *testing.T) criteria.Spec {
	t.Helper()
	s, err := criteria.NewBool("pets_allowed", true, criteria.MustHave, true, 0)
	if err != nil {
		t.Fatalf("NewBool: %v", err)
	}
	return s
}

func TestRun_ExactMatchStopsImmediately(t *testing.T) {
	gw := &fakeGateway{
		fetch: func(q listing.Query, _ int) (listing.Page, error) {
			return listing.Page{Items: []listing.Listing{
				unit("a", q.Location, map[string]float64{"bedrooms": 2}, nil),
			}}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(), testCriteria(t, "old town", bedrooms(t, 2)))

	if plan.Level != match.Exact {
		t.Fatalf("level = %s, want %s", plan.Level, match.Exact)
	}
	if plan.Reason != "" {
		t.Errorf("exact matches must carry no reason, got %q", plan.Reason)
	}
	if len(plan.RelaxedFields) != 0 {
		t.Errorf("relaxed fields = %v, want none", plan.RelaxedFields)
	}
	if len(gw.queries) != 1 {
		t.Errorf("gateway queries = %d, want 1 (no descent past a satisfied state)", len(gw.queries))
	}
}

func TestRun_DropsOptionalPreferenceBeforeWidening(t *testing.T) {
	// Upstream has units in the neighborhood, but none once the view filter
	// is applied. Dropping the tier-1 preference must succeed before any
	// geographic expansion happens.
	gw := &fakeGateway{
		fetch: func(q listing.Query, _ int) (listing.Page, error) {
			if _, filtered := q.Tags["view"]; filtered {
				return listing.Page{}, nil
			}
			return listing.Page{Items: []listing.Listing{
				unit("a", "old town", map[string]float64{"bedrooms": 2}, nil),
			}}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(),
		testCriteria(t, "old town", bedrooms(t, 2), viewPref(t, "lake")))

	if plan.Level != match.Relaxed {
		t.Fatalf("level = %s, want %s", plan.Level, match.Relaxed)
	}
	if len(plan.RelaxedFields) != 1 || plan.RelaxedFields[0] != "view" {
		t.Errorf("relaxed fields = %v, want [view]", plan.RelaxedFields)
	}
	if plan.Reason == "" {
		t.Error("a relaxed result must explain itself")
	}
	for _, q := range gw.queries {
		if q.Location != "old town" {
			t.Errorf("query widened to %q before optional preferences were exhausted", q.Location)
		}
	}
	for _, r := range plan.Results {
		if r.Level() != match.Relaxed {
			t.Errorf("result level = %s, want %s", r.Level(), match.Relaxed)
		}
	}
}

func TestRun_GeoExpansionToParentCity(t *testing.T) {
	// Nothing in the neighborhood at all; the parent city has stock.
	gw := &fakeGateway{
		fetch: func(q listing.Query, _ int) (listing.Page, error) {
			if q.Location != "riverton" {
				return listing.Page{}, nil
			}
			return listing.Page{Items: []listing.Listing{
				unit("a", "mill district", map[string]float64{"bedrooms": 2}, nil),
			}}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(), testCriteria(t, "old town", bedrooms(t, 2)))

	if plan.Level != match.GeoExpanded {
		t.Fatalf("level = %s, want %s", plan.Level, match.GeoExpanded)
	}
	found := false
	for _, f := range plan.RelaxedFields {
		if f == "location" {
			found = true
		}
	}
	if !found {
		t.Errorf("relaxed fields = %v, must include location", plan.RelaxedFields)
	}
}

func TestRun_GatewayFailureDegradesOneStateOnly(t *testing.T) {
	// The first (exact) query fails outright. The descent must continue and
	// settle at a later state instead of propagating the error.
	calls := 0
	gw := &fakeGateway{
		fetch: func(q listing.Query, _ int) (listing.Page, error) {
			calls++
			if calls == 1 {
				return listing.Page{}, errors.New("upstream timeout")
			}
			return listing.Page{Items: []listing.Listing{
				unit("a", "old town", map[string]float64{"bedrooms": 2}, nil),
			}}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(),
		testCriteria(t, "old town", bedrooms(t, 2), viewPref(t, "lake")))

	if plan.Level == match.None {
		t.Fatal("one failed state must not exhaust the descent")
	}
	if len(plan.Results) == 0 {
		t.Fatal("expected results from the surviving states")
	}
}

func TestRun_RestrictionsSurviveEveryLevel(t *testing.T) {
	// Every candidate, including the popular fallback set, violates the pet
	// restriction. The only honest answer is the terminal empty result.
	noPets := unit("a", "old town", map[string]float64{"bedrooms": 2},
		map[string]bool{"pets_allowed": false})
	gw := &fakeGateway{
		fetch: func(listing.Query, int) (listing.Page, error) {
			return listing.Page{Items: []listing.Listing{noPets}}, nil
		},
		popular: func(string, int) ([]listing.Listing, error) {
			return []listing.Listing{noPets}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(),
		testCriteria(t, "old town", bedrooms(t, 2), petsRestriction(t)))

	if plan.Level != match.None {
		t.Fatalf("level = %s, want %s", plan.Level, match.None)
	}
	if plan.Results == nil || len(plan.Results) != 0 {
		t.Errorf("terminal plan must carry an empty, non-nil result slice, got %v", plan.Results)
	}
	if plan.Reason == "" {
		t.Error("terminal plan must carry a reason")
	}
}

func TestRun_FallbackServesPopularListings(t *testing.T) {
	gw := &fakeGateway{
		popular: func(location string, limit int) ([]listing.Listing, error) {
			if limit <= 0 {
				t.Errorf("popular limit = %d, want positive", limit)
			}
			return []listing.Listing{
				unit("p1", "mill district", nil, nil),
				unit("p2", "harbor front", nil, nil),
			}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(), testCriteria(t, "old town", bedrooms(t, 7)))

	if plan.Level != match.Fallback {
		t.Fatalf("level = %s, want %s", plan.Level, match.Fallback)
	}
	if len(plan.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(plan.Results))
	}
	for _, r := range plan.Results {
		if r.Score() != 0 {
			t.Errorf("fallback score = %v, want 0", r.Score())
		}
		if r.Level() != match.Fallback {
			t.Errorf("result level = %s, want %s", r.Level(), match.Fallback)
		}
	}
}

func TestRun_BelowMinimumFallbackStillServes(t *testing.T) {
	// Every search state comes up empty and the popular set holds fewer
	// units than the stop threshold. The planner must hand back those units
	// at the fallback level instead of the empty terminal answer.
	gw := &fakeGateway{
		popular: func(string, int) ([]listing.Listing, error) {
			return []listing.Listing{
				unit("p1", "mill district", nil, nil),
				unit("p2", "harbor front", nil, nil),
			}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas()).WithThresholds(5, 10)

	plan := p.Run(context.Background(), testCriteria(t, "old town", bedrooms(t, 2)))

	if plan.Level != match.Fallback {
		t.Fatalf("level = %s, want %s", plan.Level, match.Fallback)
	}
	if len(plan.Results) != 2 {
		t.Fatalf("results = %d, want the 2 available fallback units", len(plan.Results))
	}
	if plan.Reason == "" {
		t.Error("a fallback answer must explain itself")
	}
}

func TestRun_BelowMinimumKeepsStrictestAttempt(t *testing.T) {
	// One unit exists, only in the requested neighborhood, and the threshold
	// asks for three. No state can satisfy it, so the planner serves the
	// strictest state that found anything: the exact match.
	gw := &fakeGateway{
		fetch: func(q listing.Query, _ int) (listing.Page, error) {
			if q.Location != "old town" {
				return listing.Page{}, nil
			}
			return listing.Page{Items: []listing.Listing{
				unit("a", "old town", map[string]float64{"bedrooms": 2}, nil),
			}}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas()).WithThresholds(3, 10)

	plan := p.Run(context.Background(), testCriteria(t, "old town", bedrooms(t, 2)))

	if plan.Level != match.Exact {
		t.Fatalf("level = %s, want %s", plan.Level, match.Exact)
	}
	if len(plan.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(plan.Results))
	}
}

func TestRun_PartialNiceToHaveMarkedPerCandidate(t *testing.T) {
	// The unit matches the must-have exactly but carries no view tag. It is
	// still an exact-state result, with the unmet preference recorded on the
	// candidate itself.
	gw := &fakeGateway{
		fetch: func(listing.Query, int) (listing.Page, error) {
			return listing.Page{Items: []listing.Listing{
				unit("a", "old town", map[string]float64{"bedrooms": 2}, nil),
			}}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(),
		testCriteria(t, "old town", bedrooms(t, 2), viewPref(t, "lake")))

	if plan.Level != match.Exact {
		t.Fatalf("level = %s, want %s", plan.Level, match.Exact)
	}
	r := plan.Results[0]
	if len(r.RelaxedFields()) != 1 || r.RelaxedFields()[0] != "view" {
		t.Errorf("candidate relaxed fields = %v, want [view]", r.RelaxedFields())
	}
	if r.Score() >= 1.0 {
		t.Errorf("score = %v, want partial credit below 1.0", r.Score())
	}
}

func TestRun_DescentIsMonotonic(t *testing.T) {
	// No state ever satisfies the criteria. The per-query shape shows the
	// descent: field sets only shrink, and the last query keeps nothing but
	// the restriction, at a scope wider than the one requested.
	gw := &fakeGateway{}
	p := New(gw, geo.DefaultAtlas())

	plan := p.Run(context.Background(),
		testCriteria(t, "old town", bedrooms(t, 2), viewPref(t, "lake"), petsRestriction(t)))

	if plan.Level != match.None {
		t.Fatalf("level = %s, want %s", plan.Level, match.None)
	}
	last := gw.queries[len(gw.queries)-1]
	if len(last.Numerics) != 0 || len(last.Tags) != 0 {
		t.Errorf("last query still carries droppable fields: %+v", last)
	}
	if v, ok := last.Flags["pets_allowed"]; !ok || !v {
		t.Errorf("restriction missing from the loosest query: %+v", last.Flags)
	}
	if last.Location == "old town" {
		t.Error("loosest query must run at the widened scope, not the requested neighborhood")
	}
}

func TestRun_PaginationStopsAtCapAndDedups(t *testing.T) {
	// Endless overlapping pages: every page claims more and repeats the same
	// two units. The fetch must stop at the page cap and the plan must carry
	// each unit once.
	pages := 0
	gw := &fakeGateway{
		fetch: func(listing.Query, int) (listing.Page, error) {
			pages++
			return listing.Page{
				Items: []listing.Listing{
					unit("a", "old town", map[string]float64{"bedrooms": 2}, nil),
					unit("b", "old town", map[string]float64{"bedrooms": 2}, nil),
				},
				HasMore: true,
			}, nil
		},
	}
	p := New(gw, geo.DefaultAtlas()).WithMaxPages(5)

	plan := p.Run(context.Background(), testCriteria(t, "old town", bedrooms(t, 2)))

	if pages != 5 {
		t.Errorf("pages fetched = %d, want 5", pages)
	}
	if len(plan.Results) != 2 {
		t.Fatalf("results = %d, want 2 after dedup", len(plan.Results))
	}
	if plan.Results[0].ID() == plan.Results[1].ID() {
		t.Error("duplicate unit survived")
	}
}

func TestNext_LadderEndsAfterFallback(t *testing.T) {
	order := []State{StateExact, StateRelaxed, StateGeoExpansion,
		StateCriticalOnly, StateLocationOnly, StateFallback}

	for i := 0; i < len(order)-1; i++ {
		next, ok := Next(order[i])
		if !ok || next != order[i+1] {
			t.Errorf("Next(%s) = %s %v, want %s true", order[i], next, ok, order[i+1])
		}
	}
	if _, ok := Next(StateFallback); ok {
		t.Error("fallback must be terminal")
	}

	if StateGeoExpansion.Level() != match.GeoExpanded {
		t.Errorf("geo state level = %s", StateGeoExpansion.Level())
	}
}
