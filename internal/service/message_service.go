package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/AvineetYadav/CHAT-APP/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotMessageSender = errors.New("only the message sender can perform this action")
	ErrEmptyMessage     = errors.New("message content or image is required")
)

// Notifier broadcasts real-time events to connected clients. Fan-out is
// fire-and-forget; a disconnected client catches up over REST.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyMessageDeleted(conversationID, messageID uuid.UUID)
	NotifyMessageRead(conversationID, userID uuid.UUID)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	notifier    Notifier
}

func NewMessageService(messageRepo repository.MessageRepository, convRepo repository.ConversationRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Content        string    `json:"content"`
	Image          string    `json:"image"`
}

func (s *MessageService) Send(ctx context.Context, senderID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	if input.Content == "" && input.Image == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	now := time.Now()
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: input.ConversationID,
		SenderID:       senderID,
		ReadBy:         []uuid.UUID{senderID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Content != "" {
		content := input.Content
		msg.Content = &content
	}
	if input.Image != "" {
		image := input.Image
		msg.Image = &image
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	// Last write wins on the pointer; message order truth stays createdAt.
	if err := s.convRepo.SetLatestMessage(ctx, conv.ID, &msg.ID); err != nil {
		return nil, fmt.Errorf("updating latest message: %w", err)
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
	}

	return full, nil
}

// List returns the conversation's messages oldest first. Viewing marks them
// read: every message not sent by and not yet read by the requester gains a
// readBy entry, and a messageRead event is broadcast to the room so other
// participants can drop their unread indicators.
func (s *MessageService) List(ctx context.Context, requesterID, conversationID uuid.UUID) ([]domain.Message, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(requesterID) {
		return nil, ErrNotParticipant
	}

	if _, err := s.messageRepo.MarkConversationRead(ctx, conversationID, requesterID); err != nil {
		return nil, fmt.Errorf("marking messages read: %w", err)
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	if s.notifier != nil {
		s.notifier.NotifyMessageRead(conversationID, requesterID)
	}

	return messages, nil
}

// Delete removes a message. If it was the conversation's latest, the pointer
// is repointed to the next most recent remaining message, or cleared.
func (s *MessageService) Delete(ctx context.Context, requesterID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != requesterID {
		return ErrNotMessageSender
	}

	conv, err := s.convRepo.GetByID(ctx, msg.ConversationID)
	if err != nil {
		return err
	}
	wasLatest := conv != nil && conv.LatestMessage != nil && conv.LatestMessage.ID == messageID

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	if wasLatest {
		next, err := s.messageRepo.LatestID(ctx, msg.ConversationID)
		if err != nil {
			return err
		}
		if err := s.convRepo.SetLatestMessage(ctx, msg.ConversationID, next); err != nil {
			return fmt.Errorf("repointing latest message: %w", err)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyMessageDeleted(msg.ConversationID, messageID)
	}

	return nil
}
