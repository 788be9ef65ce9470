package models

import (
	"slices"

	"slotbook/store"
)

// Slot is one bookable (day, time-range) cell of the weekly grid.
// SeatsLeft and BookedBy are mutated only through the ledger's and the
// reset service's conditional updates; Version is the compare-and-swap
// counter those updates key on.
type Slot struct {
	ID        string   `json:"id"`
	Day       string   `json:"day"`
	Time      string   `json:"time"`
	Capacity  int      `json:"capacity"`
	SeatsLeft int      `json:"seatsLeft"`
	BookedBy  []string `json:"bookedBy,omitempty"`
	Version   int      `json:"-"`
	CreatedAt int64    `json:"createdAt"`
}

func (s Slot) Doc() store.Doc {
	booked := s.BookedBy
	if booked == nil {
		booked = []string{}
	}
	return store.Doc{
		"day":       s.Day,
		"time":      s.Time,
		"capacity":  s.Capacity,
		"seatsLeft": s.SeatsLeft,
		"bookedBy":  booked,
		"version":   s.Version,
		"createdAt": s.CreatedAt,
	}
}

func SlotFromDoc(d store.Doc) Slot {
	return Slot{
		ID:        store.Str(d, "id"),
		Day:       store.Str(d, "day"),
		Time:      store.Str(d, "time"),
		Capacity:  store.Int(d, "capacity"),
		SeatsLeft: store.Int(d, "seatsLeft"),
		BookedBy:  store.Strs(d, "bookedBy"),
		Version:   store.Int(d, "version"),
		CreatedAt: store.Int64(d, "createdAt"),
	}
}

func (s Slot) Has(userID string) bool {
	return slices.Contains(s.BookedBy, userID)
}

// Booking links one user to one slot. Code is a short numeric reference
// embedded in the confirmation QR payload.
type Booking struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	SlotID    string `json:"slotId"`
	Code      string `json:"code"`
	CreatedAt int64  `json:"createdAt"`
}

func (b Booking) Doc() store.Doc {
	return store.Doc{
		"userId":    b.UserID,
		"slotId":    b.SlotID,
		"code":      b.Code,
		"createdAt": b.CreatedAt,
	}
}

func BookingFromDoc(d store.Doc) Booking {
	return Booking{
		ID:        store.Str(d, "id"),
		UserID:    store.Str(d, "userId"),
		SlotID:    store.Str(d, "slotId"),
		Code:      store.Str(d, "code"),
		CreatedAt: store.Int64(d, "createdAt"),
	}
}
