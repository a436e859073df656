package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/alvifsandana/qms-be/internal/models"
)

// Hub maintains the set of active clients and broadcasts audit events
// to them. The feed is one-way: clients only listen.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Event feed client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Int("total_clients", len(h.clients)).Msg("Event feed client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastEvent serializes an audit event and hands it to the
// broadcast loop without blocking the caller.
func (h *Hub) BroadcastEvent(event models.Event) {
	msg := Message{Action: "audit_event", Payload: event}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode audit event for broadcast")
		return
	}
	select {
	case h.Broadcast <- data:
	default:
		log.Warn().Msg("Event broadcast channel full, dropping audit event")
	}
}
