package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Event is the envelope every live-feed message is wrapped in.
// Types in use: "new_confession", "vote", "archived".
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans broadcast messages out to every connected client. All
// client-set mutation happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set. Call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than stall the board.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Notify marshals evt and broadcasts it. Dropped if the broadcast
// buffer is full so callers never block on the feed.
func (h *Hub) Notify(evt Event) {
	msg, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("type", evt.Type).Msg("marshal ws event")
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
	}
}
