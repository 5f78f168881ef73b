package services

import (
	"context"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

type userUSStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type userService struct {
	store userUSStore
}

func NewUserService(store userUSStore) *userService {
	return &userService{store: store}
}

func (s *userService) Register(ctx context.Context, uid, email, first, last string) error {
	log := logger.FromContext(ctx)

	user := &models.User{
		UID:       uid,
		Email:     email,
		FirstName: first,
		LastName:  last,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		log.Error("failed to create user in store", "error", err)
		return err
	}

	log.Info("user registered", "first_name", first, "last_name", last)
	return nil
}

func (s *userService) Get(ctx context.Context, uid string) (*models.User, error) {
	return s.store.GetUser(ctx, uid)
}

func (s *userService) Update(ctx context.Context, uid, email, first, last string) error {
	user := &models.User{
		UID:       uid,
		Email:     email,
		FirstName: first,
		LastName:  last,
		UpdatedAt: time.Now(),
	}
	return s.store.UpdateUser(ctx, user)
}
