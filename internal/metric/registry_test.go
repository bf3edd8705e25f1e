package metric

import (
	"errors"
	"testing"
)

func TestRegistryDuplicateNameDifferentKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.RegisterCounter("cpu_usage", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterGauge("cpu_usage", nil); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestRegistryIdempotentRegistration(t *testing.T) {
	r := NewRegistry()
	meta := map[string]string{"unit": "nanoseconds"}
	c1, err := r.RegisterCounter("cpu_usage", meta)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := r.RegisterCounter("cpu_usage", meta)
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatal("expected the same handle on re-registration with identical kind/metadata")
	}
}

func TestRegistryIterateOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c_one", "c_two", "c_three"} {
		if _, err := r.RegisterCounter(name, nil); err != nil {
			t.Fatal(err)
		}
	}
	entries := r.Iterate()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"c_one", "c_two", "c_three"}
	for i, e := range entries {
		if e.Name != want[i] {
			t.Fatalf("entry %d: got %q, want %q", i, e.Name, want[i])
		}
	}
}

func TestCounterGroupDropsOutOfRange(t *testing.T) {
	g := NewCounterGroup(4, LabelID)
	g.Insert(10, 100) // out of range
	if g.Dropped() != 1 {
		t.Fatalf("expected 1 dropped insert, got %d", g.Dropped())
	}
	g.Add(-1, 1)
	if g.Dropped() != 2 {
		t.Fatalf("expected 2 dropped ops, got %d", g.Dropped())
	}
	g.Insert(2, 50)
	if g.Value(2) != 50 {
		t.Fatalf("expected value 50 at index 2, got %d", g.Value(2))
	}
}

func TestGroupMetadataPopulatedIndices(t *testing.T) {
	g := NewCounterGroup(4, LabelCgroupName)
	g.SetMetadata(1, LabelCgroupName, "/")
	g.SetMetadata(2, LabelCgroupName, "/system.slice/foo")
	idx := g.PopulatedIndices()
	if len(idx) != 2 {
		t.Fatalf("expected 2 populated indices, got %d", len(idx))
	}
	if _, ok := g.Metadata(3); ok {
		t.Fatal("expected index 3 to be unpopulated")
	}
}
