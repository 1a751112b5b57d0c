package ws

import (
	"log"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventNewMessage, msg)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToRoom(msg.ConversationID, evt, nil)
}

func (n *HubNotifier) NotifyMessageDeleted(conversationID, messageID uuid.UUID) {
	evt, err := NewEvent(EventMessageDeleted, MessageDeletedPayload{
		MessageID:      messageID,
		ConversationID: conversationID,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToRoom(conversationID, evt, nil)
}

func (n *HubNotifier) NotifyMessageRead(conversationID, userID uuid.UUID) {
	evt, err := NewEvent(EventMessageRead, MessageReadPayload{
		ConversationID: conversationID,
		UserID:         userID,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToRoom(conversationID, evt, nil)
}
