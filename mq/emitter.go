package mq

import (
	"context"
	"encoding/json"
	"log"

	"slotbook/rdx"

	"github.com/google/uuid"
)

// Channel carries occupancy changes between API instances so every
// WebSocket hub broadcasts the same view.
const Channel = "booking-events"

// InstanceID distinguishes this process's messages on the shared
// channel. Local clients get every event via the hub's direct
// broadcast, so the relay must drop messages that originated here.
var InstanceID = uuid.NewString()

// Event describes one occupancy change. It intentionally carries no
// user identity; subscribers only need the new seat count.
type Event struct {
	Type      string `json:"type"` // "booked", "reset", "reset-all"
	SlotID    string `json:"slotId,omitempty"`
	Day       string `json:"day,omitempty"`
	Time      string `json:"time,omitempty"`
	SeatsLeft int    `json:"seatsLeft"`
	Origin    string `json:"origin,omitempty"`
}

// Stamp marks an event as published by this instance.
func Stamp(e Event) Event {
	e.Origin = InstanceID
	return e
}

// FromSelf reports whether a relayed event was published by this
// instance.
func (e Event) FromSelf() bool {
	return e.Origin == InstanceID
}

// Emit publishes an occupancy event to Redis. Publishing is best
// effort: a missing or unreachable Redis is logged and ignored, local
// WebSocket clients are served by the hub's direct broadcast anyway.
func Emit(ctx context.Context, event Event) {
	if rdx.Conn == nil {
		return
	}
	data, err := json.Marshal(Stamp(event))
	if err != nil {
		log.Printf("mq: failed to marshal event: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("mq: failed to publish event: %v", err)
	}
}
