package catalog

import (
	"context"
	"fmt"
	"slices"
	"time"

	"slotbook/models"
	"slotbook/store"
)

// The bookable grid is fixed: five weekdays, six contiguous half-hour
// evening ranges. Ordering everywhere follows these enumerations, not
// lexical order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var Times = []string{
	"5:30–6:00", "6:00–6:30", "6:30–7:00",
	"7:00–7:30", "7:30–8:00", "8:00–8:30",
}

const DefaultCapacity = 5

// Catalog owns slot identity and seeding; it never touches occupancy.
type Catalog struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Catalog {
	return &Catalog{store: st, now: time.Now}
}

// EnsureSeeded creates a full-capacity empty slot for every (day, time)
// cell that does not exist yet. Idempotent, runs on every start.
func (c *Catalog) EnsureSeeded(ctx context.Context) (int, error) {
	docs, err := c.store.Query(ctx, store.Slots, nil)
	if err != nil {
		return 0, fmt.Errorf("list slots: %w", err)
	}

	existing := make(map[string]bool, len(docs))
	for _, d := range docs {
		existing[store.Str(d, "day")+"|"+store.Str(d, "time")] = true
	}

	created := 0
	for _, day := range Days {
		for _, t := range Times {
			if existing[day+"|"+t] {
				continue
			}
			slot := models.Slot{
				Day:       day,
				Time:      t,
				Capacity:  DefaultCapacity,
				SeatsLeft: DefaultCapacity,
				CreatedAt: c.now().Unix(),
			}
			if _, err := c.store.CreateWithGeneratedID(ctx, store.Slots, slot.Doc()); err != nil {
				return created, fmt.Errorf("seed slot %s %s: %w", day, t, err)
			}
			created++
		}
	}
	return created, nil
}

// ListSlots returns every slot ordered by day then time, both per the
// fixed enumeration order.
func (c *Catalog) ListSlots(ctx context.Context) ([]models.Slot, error) {
	docs, err := c.store.Query(ctx, store.Slots, nil)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	slots := make([]models.Slot, 0, len(docs))
	for _, d := range docs {
		slots = append(slots, models.SlotFromDoc(d))
	}

	slices.SortFunc(slots, func(a, b models.Slot) int {
		if d := DayIndex(a.Day) - DayIndex(b.Day); d != 0 {
			return d
		}
		return TimeIndex(a.Time) - TimeIndex(b.Time)
	})
	return slots, nil
}

// GetSlot fetches one slot by id.
func (c *Catalog) GetSlot(ctx context.Context, slotID string) (models.Slot, error) {
	doc, err := c.store.Get(ctx, store.Slots, slotID)
	if err != nil {
		return models.Slot{}, err
	}
	return models.SlotFromDoc(doc), nil
}

func DayIndex(day string) int {
	return slices.Index(Days, day)
}

func TimeIndex(t string) int {
	return slices.Index(Times, t)
}
