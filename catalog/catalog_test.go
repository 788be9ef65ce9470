package catalog

import (
	"context"
	"testing"

	"slotbook/store/memstore"
)

func TestEnsureSeededCreatesFullGrid(t *testing.T) {
	cat := New(memstore.New())
	ctx := context.Background()

	created, err := cat.EnsureSeeded(ctx)
	if err != nil {
		t.Fatalf("EnsureSeeded failed: %v", err)
	}
	want := len(Days) * len(Times)
	if created != want {
		t.Fatalf("Expected %d slots created, got %d", want, created)
	}

	slots, err := cat.ListSlots(ctx)
	if err != nil {
		t.Fatalf("ListSlots failed: %v", err)
	}
	if len(slots) != want {
		t.Fatalf("Expected %d slots, got %d", want, len(slots))
	}
	for _, s := range slots {
		if s.Capacity != DefaultCapacity {
			t.Errorf("Slot %s %s: expected capacity %d, got %d", s.Day, s.Time, DefaultCapacity, s.Capacity)
		}
		if s.SeatsLeft != DefaultCapacity {
			t.Errorf("Slot %s %s: expected %d seats left, got %d", s.Day, s.Time, DefaultCapacity, s.SeatsLeft)
		}
		if len(s.BookedBy) != 0 {
			t.Errorf("Slot %s %s: expected no occupants, got %v", s.Day, s.Time, s.BookedBy)
		}
	}
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	cat := New(memstore.New())
	ctx := context.Background()

	if _, err := cat.EnsureSeeded(ctx); err != nil {
		t.Fatalf("First EnsureSeeded failed: %v", err)
	}
	created, err := cat.EnsureSeeded(ctx)
	if err != nil {
		t.Fatalf("Second EnsureSeeded failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("Expected 0 slots created on reseed, got %d", created)
	}

	slots, err := cat.ListSlots(ctx)
	if err != nil {
		t.Fatalf("ListSlots failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, s := range slots {
		key := s.Day + "|" + s.Time
		if seen[key] {
			t.Errorf("Duplicate slot for %s", key)
		}
		seen[key] = true
	}
	if len(slots) != len(Days)*len(Times) {
		t.Fatalf("Expected %d slots, got %d", len(Days)*len(Times), len(slots))
	}
}

func TestListSlotsOrdering(t *testing.T) {
	cat := New(memstore.New())
	ctx := context.Background()

	if _, err := cat.EnsureSeeded(ctx); err != nil {
		t.Fatalf("EnsureSeeded failed: %v", err)
	}
	slots, err := cat.ListSlots(ctx)
	if err != nil {
		t.Fatalf("ListSlots failed: %v", err)
	}

	// Enumeration order, not lexical: Monday before Tuesday even though
	// "Monday" < "Tuesday" happens to agree, Friday must come last, and
	// "5:30–6:00" sorts before "6:00–6:30" by index, not string value.
	for i := 1; i < len(slots); i++ {
		prev, cur := slots[i-1], slots[i]
		dp, dc := DayIndex(prev.Day), DayIndex(cur.Day)
		if dp > dc {
			t.Fatalf("Slot %d out of day order: %s after %s", i, cur.Day, prev.Day)
		}
		if dp == dc && TimeIndex(prev.Time) >= TimeIndex(cur.Time) {
			t.Fatalf("Slot %d out of time order: %s after %s", i, cur.Time, prev.Time)
		}
	}

	if slots[0].Day != "Monday" || slots[0].Time != "5:30–6:00" {
		t.Errorf("Expected grid to start Monday 5:30–6:00, got %s %s", slots[0].Day, slots[0].Time)
	}
	last := slots[len(slots)-1]
	if last.Day != "Friday" || last.Time != "8:00–8:30" {
		t.Errorf("Expected grid to end Friday 8:00–8:30, got %s %s", last.Day, last.Time)
	}
}
