package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/AvineetYadav/CHAT-APP/internal/service"
	"github.com/AvineetYadav/CHAT-APP/internal/storage"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/http/middleware"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messageService *service.MessageService
	store          *storage.LocalStore
}

func NewMessageHandler(messageService *service.MessageService, store *storage.LocalStore) *MessageHandler {
	return &MessageHandler{messageService: messageService, store: store}
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("conversationId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	messages, err := h.messageService.List(r.Context(), userID, conversationID)
	if err != nil {
		h.writeServiceError(w, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.ConversationID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "Conversation ID is required")
		return
	}

	msg, err := h.messageService.Send(r.Context(), userID, input)
	if err != nil {
		h.writeServiceError(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	if err := h.messageService.Delete(r.Context(), userID, messageID); err != nil {
		h.writeServiceError(w, "delete message", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted successfully"})
}

// Upload stores a message image and returns its URL. Pure blob-store
// passthrough, no business state.
func (h *MessageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	url, ok := readUpload(w, r, "image", h.store)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

func (h *MessageHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Message content or image is required")
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, service.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "Message not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "Not authorized to access this conversation")
	case errors.Is(err, service.ErrNotMessageSender):
		writeError(w, http.StatusForbidden, "Not authorized to delete this message")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
