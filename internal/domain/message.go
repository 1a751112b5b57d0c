package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message carries text and/or an image URL; at least one is always present.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversationId"`
	SenderID       uuid.UUID   `json:"sender"`
	Content        *string     `json:"content,omitempty"`
	Image          *string     `json:"image,omitempty"`
	ReadBy         []uuid.UUID `json:"readBy"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	// Joined fields
	SenderUsername string  `json:"senderUsername,omitempty"`
	SenderAvatar   *string `json:"senderAvatar,omitempty"`
}

func (m *Message) ReadByUser(userID uuid.UUID) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
