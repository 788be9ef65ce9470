package live

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"slotbook/mq"
	"slotbook/rdx"
)

type Client struct {
	Send chan []byte
}

// Hub fans occupancy updates out to connected dashboard clients. Local
// bookings broadcast directly; bookings on other API instances arrive
// through the Redis relay.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.Send <- data:
				default:
					close(c.Send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast pushes one occupancy event to every connected client.
func (h *Hub) Broadcast(event mq.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("live: failed to marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// StartEventRelay subscribes to the booking-events channel and rebroadcasts
// remote occupancy changes into this hub. No-op without Redis.
func (h *Hub) StartEventRelay(ctx context.Context) {
	if rdx.Conn == nil {
		return
	}
	sub := rdx.Conn.Subscribe(ctx, mq.Channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event mq.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("live: bad relay payload: %v", err)
					continue
				}
				// Our own publish; local clients already have it.
				if event.FromSelf() {
					continue
				}
				h.Broadcast(event)
			}
		}
	}()
}
