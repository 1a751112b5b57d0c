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
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrNotGroup             = errors.New("not a group conversation")
	ErrNotAdmin             = errors.New("only the group admin can perform this action")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrGroupNameRequired    = errors.New("group conversations require a name")
	ErrAlreadyParticipant   = errors.New("user is already in the group")
	ErrAdminNotRemovable    = errors.New("the group admin cannot be removed")
	ErrNotInGroup           = errors.New("user is not in the group")
)

type ConversationService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
}

func NewConversationService(convRepo repository.ConversationRepository, userRepo repository.UserRepository) *ConversationService {
	return &ConversationService{
		convRepo: convRepo,
		userRepo: userRepo,
	}
}

type CreateConversationInput struct {
	IsGroup bool        `json:"isGroup"`
	Name    string      `json:"name"`
	UserIDs []uuid.UUID `json:"userIds"`
}

type UpdateConversationInput struct {
	Name       *string `json:"name"`
	GroupImage *string `json:"groupImage"`
}

// Create starts a new conversation. For a direct message between two users
// an existing conversation with that exact pair is returned instead of
// creating a duplicate.
func (s *ConversationService) Create(ctx context.Context, requesterID uuid.UUID, input CreateConversationInput) (*domain.Conversation, error) {
	if len(input.UserIDs) == 0 {
		return nil, ErrNoParticipants
	}

	participants := make([]uuid.UUID, 0, len(input.UserIDs)+1)
	seen := make(map[uuid.UUID]struct{})
	for _, id := range input.UserIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}
	if _, ok := seen[requesterID]; !ok {
		participants = append(participants, requesterID)
	}

	if !input.IsGroup && len(participants) == 2 {
		existing, err := s.convRepo.FindDirect(ctx, participants[0], participants[1])
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   input.IsGroup,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.IsGroup {
		if input.Name == "" {
			return nil, ErrGroupNameRequired
		}
		name := input.Name
		admin := requesterID
		conv.Name = &name
		conv.AdminID = &admin
	}

	if err := s.convRepo.Create(ctx, conv, participants); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return s.convRepo.GetByID(ctx, conv.ID)
}

func (s *ConversationService) Get(ctx context.Context, requesterID, conversationID uuid.UUID) (*domain.Conversation, error) {
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
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

func (s *ConversationService) Update(ctx context.Context, requesterID, conversationID uuid.UUID, input UpdateConversationInput) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.IsGroup {
		return nil, ErrNotGroup
	}
	if !conv.IsAdmin(requesterID) {
		return nil, ErrNotAdmin
	}

	if input.Name != nil && *input.Name != "" {
		conv.Name = input.Name
	}
	if input.GroupImage != nil {
		conv.GroupImage = input.GroupImage
	}

	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	return s.convRepo.GetByID(ctx, conversationID)
}

// Delete removes a conversation and all of its messages. Groups may only be
// deleted by their admin; either side may delete a direct conversation.
func (s *ConversationService) Delete(ctx context.Context, requesterID, conversationID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if conv.IsGroup {
		if !conv.IsAdmin(requesterID) {
			return ErrNotAdmin
		}
	} else if !conv.HasParticipant(requesterID) {
		return ErrNotParticipant
	}

	return s.convRepo.Delete(ctx, conversationID)
}

func (s *ConversationService) AddParticipant(ctx context.Context, requesterID, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.IsGroup {
		return nil, ErrNotGroup
	}
	if !conv.IsAdmin(requesterID) {
		return nil, ErrNotAdmin
	}
	if conv.HasParticipant(userID) {
		return nil, ErrAlreadyParticipant
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.convRepo.AddParticipant(ctx, conversationID, userID); err != nil {
		return nil, fmt.Errorf("adding participant: %w", err)
	}
	return s.convRepo.GetByID(ctx, conversationID)
}

// RemoveParticipant removes userID from a group. The requester must be the
// admin or be removing themselves. When the admin leaves, the first
// remaining participant is promoted; when nobody remains, the conversation
// and its messages are deleted and (nil, nil) is returned.
func (s *ConversationService) RemoveParticipant(ctx context.Context, requesterID, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.IsGroup {
		return nil, ErrNotGroup
	}
	if !conv.IsAdmin(requesterID) && requesterID != userID {
		return nil, ErrNotAdmin
	}
	if conv.IsAdmin(userID) && requesterID != userID {
		return nil, ErrAdminNotRemovable
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotInGroup
	}

	wasAdmin := conv.IsAdmin(userID)
	var remaining []domain.Participant
	for _, p := range conv.Participants {
		if p.ID != userID {
			remaining = append(remaining, p)
		}
	}

	if len(remaining) == 0 {
		// Last participant left: no empty groups.
		if err := s.convRepo.Delete(ctx, conversationID); err != nil {
			return nil, fmt.Errorf("deleting empty conversation: %w", err)
		}
		return nil, nil
	}

	if err := s.convRepo.RemoveParticipant(ctx, conversationID, userID); err != nil {
		return nil, fmt.Errorf("removing participant: %w", err)
	}

	if wasAdmin {
		newAdmin := remaining[0].ID
		conv.AdminID = &newAdmin
		if err := s.convRepo.Update(ctx, conv); err != nil {
			return nil, fmt.Errorf("promoting new admin: %w", err)
		}
	}

	return s.convRepo.GetByID(ctx, conversationID)
}
