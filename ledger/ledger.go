package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"slotbook/models"
	"slotbook/store"
	"slotbook/utils"
)

var (
	ErrAlreadyBooked     = errors.New("user already has a booking")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotFull          = errors.New("no seats left in slot")
	ErrDuplicateOccupant = errors.New("user already occupies this slot")
)

// maxAttempts bounds the re-read/re-validate cycle on conditional-write
// conflicts. A conflict means some other booking or reset committed, so
// per-attempt progress is global even when this caller loses.
const maxAttempts = 8

// Ledger is the authoritative record of who booked what. All mutations
// of slot occupancy go through its single conditional-update path.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Ledger {
	return &Ledger{store: st, now: time.Now}
}

// FindUserBooking returns the user's current booking, or nil.
func (l *Ledger) FindUserBooking(ctx context.Context, userID string) (*models.Booking, error) {
	docs, err := l.store.Query(ctx, store.Bookings, store.Doc{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("find booking for %s: %w", userID, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	b := models.BookingFromDoc(docs[0])
	return &b, nil
}

// Book reserves one seat in slotID for userID and records the booking.
// Exactly one of the two outcomes is ever observable for a contended
// last seat: the seat decrement and occupant append happen in a single
// conditional write keyed on the slot version, re-validated on every
// attempt. The returned slot reflects the post-booking state.
func (l *Ledger) Book(ctx context.Context, userID, slotID string) (models.Booking, models.Slot, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		existing, err := l.FindUserBooking(ctx, userID)
		if err != nil {
			return models.Booking{}, models.Slot{}, err
		}
		if existing != nil {
			return models.Booking{}, models.Slot{}, ErrAlreadyBooked
		}

		doc, err := l.store.Get(ctx, store.Slots, slotID)
		if errors.Is(err, store.ErrNotFound) {
			return models.Booking{}, models.Slot{}, ErrSlotNotFound
		}
		if err != nil {
			return models.Booking{}, models.Slot{}, fmt.Errorf("load slot %s: %w", slotID, err)
		}
		slot := models.SlotFromDoc(doc)

		// Defensive against ledger drift: implied by the global check
		// above, still verified independently.
		if slot.Has(userID) {
			return models.Booking{}, models.Slot{}, ErrDuplicateOccupant
		}
		if slot.SeatsLeft <= 0 {
			return models.Booking{}, models.Slot{}, ErrSlotFull
		}

		err = l.store.ConditionalUpdate(ctx, store.Slots, slotID,
			store.Doc{"version": slot.Version},
			store.Doc{
				"seatsLeft": slot.SeatsLeft - 1,
				"bookedBy":  append(slot.BookedBy, userID),
				"version":   slot.Version + 1,
			},
		)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return models.Booking{}, models.Slot{}, ErrSlotNotFound
		}
		if err != nil {
			return models.Booking{}, models.Slot{}, fmt.Errorf("reserve seat in %s: %w", slotID, err)
		}

		slot.SeatsLeft--
		slot.BookedBy = append(slot.BookedBy, userID)
		slot.Version++

		booking := models.Booking{
			UserID:    userID,
			SlotID:    slotID,
			Code:      utils.GenerateRandomDigitString(12),
			CreatedAt: l.now().Unix(),
		}
		id, err := l.store.CreateWithGeneratedID(ctx, store.Bookings, booking.Doc())
		if err != nil {
			l.releaseSeat(ctx, slotID, userID)
			return models.Booking{}, models.Slot{}, fmt.Errorf("record booking: %w", err)
		}
		booking.ID = id
		return booking, slot, nil
	}
	return models.Booking{}, models.Slot{}, fmt.Errorf("book %s: too many conflicting writes: %w", slotID, store.ErrUnavailable)
}

// releaseSeat compensates a committed seat decrement whose booking
// record could not be written. Failure here leaves drift that the
// duplicate-occupant check tolerates and an admin reset repairs.
func (l *Ledger) releaseSeat(ctx context.Context, slotID, userID string) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		doc, err := l.store.Get(ctx, store.Slots, slotID)
		if err != nil {
			break
		}
		slot := models.SlotFromDoc(doc)
		if !slot.Has(userID) {
			return
		}
		seats := slot.SeatsLeft + 1
		if seats > slot.Capacity {
			seats = slot.Capacity
		}
		err = l.store.ConditionalUpdate(ctx, store.Slots, slotID,
			store.Doc{"version": slot.Version},
			store.Doc{
				"seatsLeft": seats,
				"bookedBy":  without(slot.BookedBy, userID),
				"version":   slot.Version + 1,
			},
		)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err == nil {
			return
		}
		break
	}
	log.Printf("ledger: could not release seat in %s for %s", slotID, userID)
}

func without(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
