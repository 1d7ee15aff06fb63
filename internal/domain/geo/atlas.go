// Package geo provides the static location hierarchy used for geographic
// expansion: neighborhoods roll up to a parent city, cities have a fixed
// adjacency list.
package geo

import (
	"sort"
	"strings"
)

// Atlas maps fine-grained locations to parents and cities to neighbors. All
// names are stored and looked up lower-cased.
type Atlas struct {
	parentCity map[string]string
	neighbors  map[string][]string
}

// NewAtlas builds an atlas from parent and adjacency tables.
func NewAtlas(parentCity map[string]string, neighbors map[string][]string) *Atlas {
	a := &Atlas{
		parentCity: make(map[string]string, len(parentCity)),
		neighbors:  make(map[string][]string, len(neighbors)),
	}
	for k, v := range parentCity {
		a.parentCity[norm(k)] = norm(v)
	}
	for k, vs := range neighbors {
		ns := make([]string, len(vs))
		for i, v := range vs {
			ns[i] = norm(v)
		}
		sort.Strings(ns)
		a.neighbors[norm(k)] = ns
	}
	return a
}

// IsFineGrained reports whether the location is a sub-city unit that has a
// known parent city.
func (a *Atlas) IsFineGrained(location string) bool {
	_, ok := a.parentCity[norm(location)]
	return ok
}

// ParentOf returns the parent city of a fine-grained location.
func (a *Atlas) ParentOf(location string) (string, bool) {
	p, ok := a.parentCity[norm(location)]
	return p, ok
}

// NeighborsOf returns the adjacent cities of a city, sorted.
func (a *Atlas) NeighborsOf(city string) []string {
	return a.neighbors[norm(city)]
}

// Widen returns the successively wider scopes to try after the given
// location: the parent city (when the location is fine-grained) followed by
// that city's neighbors. The input location itself is never included.
func (a *Atlas) Widen(location string) []string {
	location = norm(location)
	var scopes []string
	city := location
	if parent, ok := a.parentCity[location]; ok {
		scopes = append(scopes, parent)
		city = parent
	}
	for _, n := range a.neighbors[city] {
		if n != location {
			scopes = append(scopes, n)
		}
	}
	return scopes
}

// BroadestKnown returns the widest scope for a location: the last widened
// scope, or the location itself when the atlas knows nothing wider.
func (a *Atlas) BroadestKnown(location string) string {
	if parent, ok := a.parentCity[norm(location)]; ok {
		return parent
	}
	return norm(location)
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// DefaultAtlas returns the built-in metro table.
func DefaultAtlas() *Atlas {
	return NewAtlas(
		map[string]string{
			"old town":       "riverton",
			"harbor front":   "riverton",
			"mill district":  "riverton",
			"north shore":    "eastvale",
			"garden heights": "eastvale",
			"the docks":      "harborview",
			"sunnyside":      "harborview",
		},
		map[string][]string{
			"riverton":   {"eastvale", "harborview"},
			"eastvale":   {"riverton", "lakemont"},
			"harborview": {"riverton", "lakemont"},
			"lakemont":   {"eastvale", "harborview"},
		},
	)
}
