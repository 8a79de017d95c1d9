package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/repository"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type NotificationReader interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
}

type AccountService struct {
	userRepo         UserRepository
	notificationRepo NotificationReader
}

func NewAccountService(userRepo UserRepository, notificationRepo NotificationReader) *AccountService {
	return &AccountService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

type RegisterRequest struct {
	Name string
	Role model.Role
}

func (s *AccountService) Register(ctx context.Context, p RegisterRequest) (*model.User, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, errors.New("name is required")
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", p.Role)
	}

	return s.userRepo.Create(ctx, &model.User{
		Name: p.Name,
		Role: p.Role,
	})
}

func (s *AccountService) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AccountService) Notifications(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit)
}
