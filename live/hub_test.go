package live

import (
	"encoding/json"
	"testing"
	"time"

	"slotbook/mq"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10)}
	hub.add(client)

	event := mq.Event{Type: "booked", SlotID: "s1", SeatsLeft: 3}
	hub.Broadcast(event)

	select {
	case got := <-client.Send:
		var decoded mq.Event
		if err := json.Unmarshal(got, &decoded); err != nil {
			t.Fatalf("broadcast payload not JSON: %v", err)
		}
		if decoded != event {
			t.Fatalf("expected %+v, got %+v", event, decoded)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.drop(client)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// Zero-buffer client that never reads: the first broadcast must
	// evict it instead of blocking the hub.
	slow := &Client{Send: make(chan []byte)}
	healthy := &Client{Send: make(chan []byte, 10)}
	hub.add(slow)
	hub.add(healthy)

	hub.Broadcast(mq.Event{Type: "booked", SlotID: "s1", SeatsLeft: 2})
	hub.Broadcast(mq.Event{Type: "booked", SlotID: "s1", SeatsLeft: 1})

	received := 0
	deadline := time.After(1 * time.Second)
	for received < 2 {
		select {
		case _, ok := <-healthy.Send:
			if !ok {
				t.Fatal("healthy client was dropped")
			}
			received++
		case <-deadline:
			t.Fatalf("timeout; healthy client received %d of 2 broadcasts", received)
		}
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Send: make(chan []byte, 1)}
	hub.add(client)
	hub.Stop()

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected closed channel after Stop")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for Stop to close clients")
	}
}
