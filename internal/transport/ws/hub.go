package ws

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Hub manages all active WebSocket connections and routes room broadcasts.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMsg
	stop       chan struct{}

	presence *presence
}

type roomMsg struct {
	conversationID uuid.UUID
	data           []byte
	exclude        *Client // optional: skip this connection (e.g. the typist)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMsg, 256),
		stop:       make(chan struct{}),
		presence:   newPresence(),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.presence.add(client.userID)
			log.Printf("ws hub: user %s connected (%d conns)", client.userID, len(h.clients))
			h.broadcastOnline()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Printf("ws hub: user %s disconnected (%d conns)", client.userID, len(h.clients))
				h.broadcastOnline()
			}

		case msg := <-h.broadcast:
			var dropped []*Client
			for client := range h.clients {
				if client == msg.exclude {
					continue
				}
				if !client.InRoom(msg.conversationID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					dropped = append(dropped, client)
				}
			}
			for _, client := range dropped {
				h.drop(client)
			}
			if len(dropped) > 0 {
				h.broadcastOnline()
			}

		case <-h.stop:
			for client := range h.clients {
				h.drop(client)
			}
			h.presence.clear()
			return
		}
	}
}

// Stop tears the hub down, closing every connection and clearing presence.
func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastToRoom sends an event to every connection subscribed to the
// conversation. Fire-and-forget: no acknowledgment, no retry.
func (h *Hub) BroadcastToRoom(conversationID uuid.UUID, event *Event, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.broadcast <- &roomMsg{
		conversationID: conversationID,
		data:           data,
		exclude:        exclude,
	}
}

// HandleTyping relays a typing indicator to the room, excluding the typist's
// own connection. Nothing is persisted and nothing is guaranteed.
func (h *Hub) HandleTyping(sender *Client, payload TypingPayload, started bool) {
	eventType := EventUserStoppedTyping
	if started {
		eventType = EventUserStartedTyping
	}

	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	h.BroadcastToRoom(payload.ConversationID, evt, sender)
}

// broadcastOnline pushes the full online-user list to every connection.
func (h *Hub) broadcastOnline() {
	evt, err := NewEvent(EventOnlineUsers, h.presence.list())
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// drop removes a client from the hub. Must run on the hub goroutine.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	close(c.done)
	h.presence.remove(c.userID)
}
