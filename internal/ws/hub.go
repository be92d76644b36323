// Package ws pushes trip lifecycle events to ops dashboard clients over
// WebSocket. Clients are read-only consumers of the event feed.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"RideDesk/internal/lib/sl"
)

// Event represents a dashboard event, e.g. "trip_requested" or "trip_accepted".
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.With(sl.Module("ws-hub")),
	}
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for all connected dashboard clients.
// Drops the event when the broadcast queue is full.
func (h *Hub) Publish(eventType string, data any) {
	select {
	case h.broadcast <- &Event{Type: eventType, Data: data}:
	default:
		h.log.Warn("dropping dashboard event", slog.String("type", eventType))
	}
}
