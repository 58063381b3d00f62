package spatial

import "testing"

// TestRangeQueryMatchesExactDistance: RangeQuery(p, r) must return exactly
// {e : distance(position(e), p) <= r}, no broad-phase
// false positives or misses.
func TestRangeQueryMatchesExactDistance(t *testing.T) {
	idx := NewIndex(1000, 1000, 50, 16)
	idx.Rebuild([]IndexEntry{
		{Entity: 1, X: 0, Y: 0, Faction: 1},
		{Entity: 2, X: 100, Y: 0, Faction: 1},   // exactly on the boundary for r=100
		{Entity: 3, X: 100.5, Y: 0, Faction: 1}, // just outside
		{Entity: 4, X: 500, Y: 500, Faction: 2}, // far away
	})

	got := idx.RangeQuery(0, 0, 100)
	want := map[uint32]bool{1: true, 2: true}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries within range, got %d: %+v", len(want), len(got), got)
	}
	for _, e := range got {
		if !want[e.Entity] {
			t.Fatalf("unexpected entity %d within range", e.Entity)
		}
	}
}

func TestRangeQueryEmptyWhenNothingInRadius(t *testing.T) {
	idx := NewIndex(1000, 1000, 50, 4)
	idx.Rebuild([]IndexEntry{{Entity: 1, X: 900, Y: 900}})

	got := idx.RangeQuery(0, 0, 10)
	if len(got) != 0 {
		t.Fatalf("expected no entries in range, got %+v", got)
	}
}

// TestRebuildReplacesPriorContents ensures a second Rebuild fully discards
// the first tick's entries rather than accumulating them.
func TestRebuildReplacesPriorContents(t *testing.T) {
	idx := NewIndex(1000, 1000, 50, 8)
	idx.Rebuild([]IndexEntry{{Entity: 1, X: 0, Y: 0}, {Entity: 2, X: 10, Y: 0}})
	if idx.Len() != 2 {
		t.Fatalf("expected 2 entries after first rebuild, got %d", idx.Len())
	}

	idx.Rebuild([]IndexEntry{{Entity: 3, X: 0, Y: 0}})
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after second rebuild, got %d", idx.Len())
	}
	got := idx.RangeQuery(0, 0, 5)
	if len(got) != 1 || got[0].Entity != 3 {
		t.Fatalf("expected only entity 3 to remain indexed, got %+v", got)
	}
}
