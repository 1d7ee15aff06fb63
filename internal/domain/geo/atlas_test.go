package geo

import (
	"reflect"
	"testing"
)

func testAtlas() *Atlas {
	return NewAtlas(
		map[string]string{"old town": "riverton"},
		map[string][]string{"riverton": {"eastvale", "harborview"}},
	)
}

func TestWiden_Neighborhood(t *testing.T) {
	a := testAtlas()

	got := a.Widen("Old Town")
	want := []string{"riverton", "eastvale", "harborview"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Widen = %v, want %v", got, want)
	}
}

func TestWiden_City(t *testing.T) {
	a := testAtlas()

	got := a.Widen("riverton")
	want := []string{"eastvale", "harborview"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Widen = %v, want %v", got, want)
	}
}

func TestWiden_Unknown(t *testing.T) {
	a := testAtlas()

	if got := a.Widen("atlantis"); len(got) != 0 {
		t.Errorf("Widen(unknown) = %v, want empty", got)
	}
}

func TestIsFineGrained(t *testing.T) {
	a := testAtlas()

	if !a.IsFineGrained("old town") {
		t.Error("old town should be fine-grained")
	}
	if a.IsFineGrained("riverton") {
		t.Error("riverton is a city, not fine-grained")
	}
}

func TestBroadestKnown(t *testing.T) {
	a := testAtlas()

	if got := a.BroadestKnown("old town"); got != "riverton" {
		t.Errorf("BroadestKnown(old town) = %q, want riverton", got)
	}
	if got := a.BroadestKnown("lakemont"); got != "lakemont" {
		t.Errorf("BroadestKnown(lakemont) = %q, want itself", got)
	}
}

func TestDefaultAtlas_Consistent(t *testing.T) {
	a := DefaultAtlas()

	for hood := range a.parentCity {
		parent, ok := a.ParentOf(hood)
		if !ok {
			t.Fatalf("ParentOf(%q) missing", hood)
		}
		if len(a.NeighborsOf(parent)) == 0 {
			t.Errorf("parent city %q of %q has no adjacency entry", parent, hood)
		}
	}
}
