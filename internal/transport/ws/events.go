package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event types - Client → Server
const (
	EventJoinConversation = "joinConversation"
	EventTyping           = "typing"
	EventStopTyping       = "stopTyping"
)

// Event types - Server → Client
const (
	EventOnlineUsers       = "onlineUsers"
	EventNewMessage        = "newMessage"
	EventMessageDeleted    = "messageDeleted"
	EventMessageRead       = "messageRead"
	EventUserStartedTyping = "userStartedTyping"
	EventUserStoppedTyping = "userStoppedTyping"
)

// Event is the envelope for all WebSocket messages.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
}

type MessageDeletedPayload struct {
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
}

type MessageReadPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
}

// NewEvent wraps a payload in the event envelope.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Payload: data}, nil
}
