package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/moneymap-app/moneymap-backend/internal/models"
)

type userStore struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

func NewUserStore(client *firestore.Client) *userStore {
	return &userStore{
		client:     client,
		collection: client.Collection("users"),
	}
}

func (s *userStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.collection.Doc(user.UID).Create(ctx, user)
	return err
}

func (s *userStore) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := s.collection.Doc(user.UID).Set(ctx, user, firestore.MergeAll)
	return err
}

func (s *userStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	doc, err := s.collection.Doc(uid).Get(ctx)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
