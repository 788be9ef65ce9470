package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"slotbook/models"
	"slotbook/store"
	"slotbook/store/memstore"
)

func newSlot(t *testing.T, st store.Store, capacity int) string {
	t.Helper()
	slot := models.Slot{
		Day:       "Monday",
		Time:      "5:30–6:00",
		Capacity:  capacity,
		SeatsLeft: capacity,
	}
	id, err := st.CreateWithGeneratedID(context.Background(), store.Slots, slot.Doc())
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	return id
}

func TestBookSuccess(t *testing.T) {
	st := memstore.New()
	l := New(st)
	ctx := context.Background()
	slotID := newSlot(t, st, 5)

	booking, booked, err := l.Book(ctx, "a@x.com", slotID)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if booked.SeatsLeft != 4 {
		t.Errorf("Expected 4 seats left, got %d", booked.SeatsLeft)
	}
	if booking.ID == "" {
		t.Error("Expected a booking id")
	}
	if booking.UserID != "a@x.com" || booking.SlotID != slotID {
		t.Errorf("Booking fields wrong: %+v", booking)
	}

	// Slot occupants and seat count must agree with the booking.
	doc, err := st.Get(ctx, store.Slots, slotID)
	if err != nil {
		t.Fatalf("Get slot: %v", err)
	}
	slot := models.SlotFromDoc(doc)
	if slot.SeatsLeft != 4 {
		t.Errorf("Expected slot seatsLeft 4, got %d", slot.SeatsLeft)
	}
	if !slot.Has("a@x.com") {
		t.Errorf("Expected a@x.com in occupants, got %v", slot.BookedBy)
	}

	found, err := l.FindUserBooking(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindUserBooking failed: %v", err)
	}
	if found == nil || found.ID != booking.ID {
		t.Errorf("FindUserBooking did not return the booking: %+v", found)
	}
}

func TestBookAlreadyBookedAnywhere(t *testing.T) {
	st := memstore.New()
	l := New(st)
	ctx := context.Background()
	slot1 := newSlot(t, st, 5)
	slot2 := newSlot(t, st, 5)

	if _, _, err := l.Book(ctx, "a@x.com", slot1); err != nil {
		t.Fatalf("First book failed: %v", err)
	}

	// The one-booking rule is global, not per slot.
	_, _, err := l.Book(ctx, "a@x.com", slot2)
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("Expected ErrAlreadyBooked, got %v", err)
	}
	_, _, err = l.Book(ctx, "a@x.com", slot1)
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("Expected ErrAlreadyBooked on same slot, got %v", err)
	}
}

func TestBookSlotNotFound(t *testing.T) {
	l := New(memstore.New())
	_, _, err := l.Book(context.Background(), "a@x.com", "missing")
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("Expected ErrSlotNotFound, got %v", err)
	}
}

func TestBookSlotFull(t *testing.T) {
	st := memstore.New()
	l := New(st)
	ctx := context.Background()
	slotID := newSlot(t, st, 1)

	if _, _, err := l.Book(ctx, "a@x.com", slotID); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	_, _, err := l.Book(ctx, "b@x.com", slotID)
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("Expected ErrSlotFull, got %v", err)
	}
}

func TestBookDuplicateOccupantDrift(t *testing.T) {
	st := memstore.New()
	l := New(st)
	ctx := context.Background()

	// Ledger drift: the user occupies the slot but no booking record
	// exists. The defensive check must still reject the book.
	slot := models.Slot{
		Day:       "Monday",
		Time:      "5:30–6:00",
		Capacity:  5,
		SeatsLeft: 4,
		BookedBy:  []string{"a@x.com"},
	}
	slotID, err := st.CreateWithGeneratedID(ctx, store.Slots, slot.Doc())
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	_, _, err = l.Book(ctx, "a@x.com", slotID)
	if !errors.Is(err, ErrDuplicateOccupant) {
		t.Fatalf("Expected ErrDuplicateOccupant, got %v", err)
	}
}

func TestConcurrentBookingNeverOversells(t *testing.T) {
	st := memstore.New()
	l := New(st)
	ctx := context.Background()
	slotID := newSlot(t, st, 5)

	// Five bookers fit, the sixth must get SlotFull.
	const bookers = 6
	var wg sync.WaitGroup
	results := make([]error, bookers)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := l.Book(ctx, fmt.Sprintf("user%d@x.com", i), slotID)
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotFull):
			full++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 5 || full != 1 {
		t.Fatalf("Expected 5 successes and 1 SlotFull, got %d and %d", succeeded, full)
	}

	doc, err := st.Get(ctx, store.Slots, slotID)
	if err != nil {
		t.Fatalf("Get slot: %v", err)
	}
	slot := models.SlotFromDoc(doc)
	if slot.SeatsLeft != 0 {
		t.Errorf("Expected 0 seats left, got %d", slot.SeatsLeft)
	}
	if len(slot.BookedBy) != 5 {
		t.Errorf("Expected 5 occupants, got %d", len(slot.BookedBy))
	}

	bookings, err := st.Query(ctx, store.Bookings, nil)
	if err != nil {
		t.Fatalf("Query bookings: %v", err)
	}
	if len(bookings) != 5 {
		t.Errorf("Expected 5 booking records, got %d", len(bookings))
	}
}

func TestConcurrentLastSeatSingleWinner(t *testing.T) {
	st := memstore.New()
	l := New(st)
	ctx := context.Background()
	slotID := newSlot(t, st, 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := l.Book(ctx, fmt.Sprintf("racer%d@x.com", i), slotID)
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrSlotFull) {
			t.Errorf("Loser should see ErrSlotFull, got %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("Expected exactly one winner for the last seat, got %d", winners)
	}
}

func TestFindUserBookingNone(t *testing.T) {
	l := New(memstore.New())
	b, err := l.FindUserBooking(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("FindUserBooking failed: %v", err)
	}
	if b != nil {
		t.Errorf("Expected no booking, got %+v", b)
	}
}
