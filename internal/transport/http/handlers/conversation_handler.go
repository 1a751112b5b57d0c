package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/AvineetYadav/CHAT-APP/internal/service"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/http/middleware"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	convService *service.ConversationService
}

func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.convService.List(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list conversations: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	conv, err := h.convService.Get(r.Context(), userID, conversationID)
	if err != nil {
		h.writeServiceError(w, "get conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateConversationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := h.convService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoParticipants):
			writeError(w, http.StatusBadRequest, "Please select at least one user")
		case errors.Is(err, service.ErrGroupNameRequired):
			writeError(w, http.StatusBadRequest, "Group name is required")
		default:
			log.Printf("ERROR create conversation: %v", err)
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	var input service.UpdateConversationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := h.convService.Update(r.Context(), userID, conversationID, input)
	if err != nil {
		h.writeServiceError(w, "update conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	if err := h.convService.Delete(r.Context(), userID, conversationID); err != nil {
		h.writeServiceError(w, "delete conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

func (h *ConversationHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	var body struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	conv, err := h.convService.AddParticipant(r.Context(), userID, conversationID, body.UserID)
	if err != nil {
		h.writeServiceError(w, "add user to group", err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}
	targetID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	conv, err := h.convService.RemoveParticipant(r.Context(), userID, conversationID, targetID)
	if err != nil {
		h.writeServiceError(w, "remove user from group", err)
		return
	}

	if conv == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted as no participants remain"})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "Not authorized to access this conversation")
	case errors.Is(err, service.ErrNotAdmin):
		writeError(w, http.StatusForbidden, "Only the group admin can perform this action")
	case errors.Is(err, service.ErrNotGroup):
		writeError(w, http.StatusBadRequest, "Not a group conversation")
	case errors.Is(err, service.ErrAdminNotRemovable):
		writeError(w, http.StatusBadRequest, "Cannot remove the group admin")
	case errors.Is(err, service.ErrNotInGroup):
		writeError(w, http.StatusBadRequest, "User is not in the group")
	case errors.Is(err, service.ErrAlreadyParticipant):
		writeError(w, http.StatusConflict, "User is already in the group")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
