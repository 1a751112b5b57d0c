package service

import (
	"context"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/AvineetYadav/CHAT-APP/internal/repository"
	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Search finds users by username substring, excluding the requester.
func (s *UserService) Search(ctx context.Context, requesterID uuid.UUID, query string) ([]domain.User, error) {
	if query == "" {
		return []domain.User{}, nil
	}
	users, err := s.userRepo.Search(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
