package datasource

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRegistryAssignsSequencedIDs verifies sources without an explicit id
// get kind-derived sequential ones.
func TestRegistryAssignsSequencedIDs(t *testing.T) {
	reg := NewRegistry()

	a := New(newFakeSeries(1))
	b := New(newFakeSeries(1))
	c := New(&fakeStream{})
	for _, src := range []*Source{a, b, c} {
		if err := reg.Add(src); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if a.ID() != "series-0" || b.ID() != "series-1" {
		t.Errorf("Expected per-kind sequence, got %q and %q", a.ID(), b.ID())
	}
	if c.ID() != "stream-0" {
		t.Errorf("Expected independent sequence per kind, got %q", c.ID())
	}
	if reg.Len() != 3 {
		t.Errorf("Expected 3 sources, got %d", reg.Len())
	}
}

// TestRegistryDuplicateID verifies adding the same id twice fails.
func TestRegistryDuplicateID(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(New(newFakeSeries(1), WithID("dup"))); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := reg.Add(New(newFakeSeries(1), WithID("dup"))); err == nil {
		t.Error("Expected duplicate id to be rejected")
	}
}

// TestRegistryGetRemove verifies lookup and removal.
func TestRegistryGetRemove(t *testing.T) {
	reg := NewRegistry()
	src := New(newFakeSeries(1), WithID("one"))
	if err := reg.Add(src); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, ok := reg.Get("one")
	if !ok || got != src {
		t.Error("Expected to get the registered source back")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Expected unknown id to miss")
	}

	reg.Remove("one")
	reg.Remove("one")
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}
}

// TestRegistryIDsNaturalOrder verifies ids sort numerically, not
// lexicographically.
func TestRegistryIDsNaturalOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"src-10", "src-2", "src-1"} {
		if err := reg.Add(New(newFakeSeries(1), WithID(id))); err != nil {
			t.Fatalf("Add %s failed: %v", id, err)
		}
	}

	want := []string{"src-1", "src-2", "src-10"}
	if diff := cmp.Diff(want, reg.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

// TestRegistryIDUpdatesEvents verifies a registry-assigned id shows up as
// the event source.
func TestRegistryIDUpdatesEvents(t *testing.T) {
	reg := NewRegistry()
	src := New(newFakeSeries(1))
	if err := reg.Add(src); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rec := &eventRecorder{}
	src.Subscribe(rec)
	if err := src.Prepare(t.Context()); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	events := rec.all()
	if len(events) != 1 || events[0].Source != "series-0" {
		t.Errorf("Expected event from series-0, got %v", events)
	}
}
