package service

import (
	"context"

	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Me(ctx context.Context, userID string) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateDisplayName(ctx context.Context, userID string, displayName string) (models.User, error) {
	return s.users.UpdateDisplayName(ctx, userID, displayName)
}
