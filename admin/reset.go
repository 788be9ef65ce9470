package admin

import (
	"context"
	"errors"
	"fmt"

	"slotbook/models"
	"slotbook/store"
)

const maxAttempts = 8

// Service performs the admin-side rollback operations over the ledger.
// Each slot and booking is handled with its own atomic step; there is
// deliberately no cross-record transaction, so a reset racing an
// in-flight booking settles to whichever committed first, never to a
// hybrid state.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// ResetReport is the aggregate outcome of ResetAll. Partial success is
// visible: SlotsReset of SlotsTotal, BookingsDeleted of BookingsTotal.
type ResetReport struct {
	SlotsTotal      int      `json:"slotsTotal"`
	SlotsReset      int      `json:"slotsReset"`
	BookingsTotal   int      `json:"bookingsTotal"`
	BookingsDeleted int      `json:"bookingsDeleted"`
	Errors          []string `json:"errors,omitempty"`
}

// BookingRow is one admin-panel row: a booking joined with its slot.
type BookingRow struct {
	BookingID string `json:"bookingId"`
	Email     string `json:"email"`
	SlotID    string `json:"slotId"`
	Day       string `json:"day"`
	Time      string `json:"time"`
	CreatedAt int64  `json:"createdAt"`
}

// ResetOne rolls back a single booking: restore the seat and remove the
// occupant in one conditional write, then delete the booking record.
// A missing booking means a concurrent admin got there first; that is
// benign and reported as found=false, not an error.
func (s *Service) ResetOne(ctx context.Context, bookingID string) (bool, error) {
	doc, err := s.store.Get(ctx, store.Bookings, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	booking := models.BookingFromDoc(doc)

	if err := s.restoreSeat(ctx, booking.SlotID, booking.UserID); err != nil {
		return false, err
	}

	err = s.store.Delete(ctx, store.Bookings, bookingID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("delete booking %s: %w", bookingID, err)
	}
	return true, nil
}

// ResetAll restores every slot to seeded capacity with no occupants and
// deletes every booking. Per-record failures are collected, not fatal.
// Each booking is rolled back through the same restore-then-delete
// sequence as ResetOne: a booking that commits after its slot was wiped
// still has its seat restored before the record goes, so the two-phase
// sweep never strands an occupant without a booking.
func (s *Service) ResetAll(ctx context.Context) (ResetReport, error) {
	var report ResetReport

	slotDocs, err := s.store.Query(ctx, store.Slots, nil)
	if err != nil {
		return report, fmt.Errorf("list slots: %w", err)
	}
	report.SlotsTotal = len(slotDocs)
	for _, d := range slotDocs {
		slot := models.SlotFromDoc(d)
		if err := s.resetSlot(ctx, slot.ID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("slot %s: %v", slot.ID, err))
			continue
		}
		report.SlotsReset++
	}

	bookingDocs, err := s.store.Query(ctx, store.Bookings, nil)
	if err != nil {
		return report, fmt.Errorf("list bookings: %w", err)
	}
	report.BookingsTotal = len(bookingDocs)
	for _, d := range bookingDocs {
		b := models.BookingFromDoc(d)
		if err := s.restoreSeat(ctx, b.SlotID, b.UserID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("booking %s: %v", b.ID, err))
			continue
		}
		err := s.store.Delete(ctx, store.Bookings, b.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			report.Errors = append(report.Errors, fmt.Sprintf("booking %s: %v", b.ID, err))
			continue
		}
		report.BookingsDeleted++
	}
	return report, nil
}

// ListBookings flattens every booking joined with its slot's day and
// time for the admin panel.
func (s *Service) ListBookings(ctx context.Context) ([]BookingRow, error) {
	slotDocs, err := s.store.Query(ctx, store.Slots, nil)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	slotByID := make(map[string]models.Slot, len(slotDocs))
	for _, d := range slotDocs {
		slot := models.SlotFromDoc(d)
		slotByID[slot.ID] = slot
	}

	bookingDocs, err := s.store.Query(ctx, store.Bookings, nil)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	rows := make([]BookingRow, 0, len(bookingDocs))
	for _, d := range bookingDocs {
		b := models.BookingFromDoc(d)
		slot := slotByID[b.SlotID]
		rows = append(rows, BookingRow{
			BookingID: b.ID,
			Email:     b.UserID,
			SlotID:    b.SlotID,
			Day:       slot.Day,
			Time:      slot.Time,
			CreatedAt: b.CreatedAt,
		})
	}
	return rows, nil
}

// restoreSeat puts one seat back and removes the occupant, keyed on the
// slot version so it never clobbers a concurrent booking.
func (s *Service) restoreSeat(ctx context.Context, slotID, userID string) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		doc, err := s.store.Get(ctx, store.Slots, slotID)
		if errors.Is(err, store.ErrNotFound) {
			// Slot gone; nothing to restore.
			return nil
		}
		if err != nil {
			return fmt.Errorf("load slot %s: %w", slotID, err)
		}
		slot := models.SlotFromDoc(doc)
		if !slot.Has(userID) {
			return nil
		}

		seats := slot.SeatsLeft + 1
		if seats > slot.Capacity {
			seats = slot.Capacity
		}
		err = s.store.ConditionalUpdate(ctx, store.Slots, slotID,
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
		if err != nil {
			return fmt.Errorf("restore seat in %s: %w", slotID, err)
		}
		return nil
	}
	return fmt.Errorf("restore seat in %s: too many conflicting writes: %w", slotID, store.ErrUnavailable)
}

// resetSlot restores a slot to full capacity with no occupants.
func (s *Service) resetSlot(ctx context.Context, slotID string) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		doc, err := s.store.Get(ctx, store.Slots, slotID)
		if err != nil {
			return fmt.Errorf("load slot %s: %w", slotID, err)
		}
		slot := models.SlotFromDoc(doc)
		if slot.SeatsLeft == slot.Capacity && len(slot.BookedBy) == 0 {
			return nil
		}
		err = s.store.ConditionalUpdate(ctx, store.Slots, slotID,
			store.Doc{"version": slot.Version},
			store.Doc{
				"seatsLeft": slot.Capacity,
				"bookedBy":  []string{},
				"version":   slot.Version + 1,
			},
		)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reset slot %s: %w", slotID, err)
		}
		return nil
	}
	return fmt.Errorf("reset slot %s: too many conflicting writes: %w", slotID, store.ErrUnavailable)
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
