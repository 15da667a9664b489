package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is a helpdesk event pushed to connected admin dashboards.
// Types: "position_request", "position_request_resolved", "ticket",
// "sla_warning", "registration".
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Hub maintains the set of active dashboard connections and fans
// helpdesk events out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
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

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// slow client, drop the event for it
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish broadcasts a helpdesk event to every connected dashboard.
// Never blocks the caller.
func (h *Hub) Publish(eventType string, data any) {
	event := &Event{
		Type: eventType,
		Data: data,
		At:   time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
		if h.log != nil {
			h.log.Warn("event dropped, broadcast queue full",
				slog.String("type", eventType))
		}
	}
}
