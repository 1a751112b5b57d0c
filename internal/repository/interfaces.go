package repository

import (
	"context"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Search(ctx context.Context, query string, excludeID uuid.UUID) ([]domain.User, error)
}

type ConversationRepository interface {
	// Create persists the conversation together with its participant rows.
	Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error
	// GetByID returns the conversation with participant summaries and the
	// latest-message summary joined in, or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// FindDirect returns the non-group conversation whose participant set is
	// exactly {userA, userB}, in either order, or nil.
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	Update(ctx context.Context, conv *domain.Conversation) error
	// Delete removes the conversation, its participants and all of its
	// messages in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	AddParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	SetLatestMessage(ctx context.Context, conversationID uuid.UUID, messageID *uuid.UUID) error
}

type MessageRepository interface {
	// Create persists the message and a read row for the sender.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByConversation returns messages oldest first, readBy included.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	// MarkConversationRead adds userID to readBy of every message in the
	// conversation not sent by and not already read by them. Idempotent.
	MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// LatestID returns the id of the most recently created message in the
	// conversation, or nil if none remain.
	LatestID(ctx context.Context, conversationID uuid.UUID) (*uuid.UUID, error)
}
