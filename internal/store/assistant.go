package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
)

type assistantStore struct {
	client *firestore.Client
}

func NewAssistantStore(client *firestore.Client) *assistantStore {
	return &assistantStore{client: client}
}

func (s *assistantStore) messagesCollection(uid, sessionID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("assistant_sessions").Doc(sessionID).Collection("messages")
}

func (s *assistantStore) SaveMessage(ctx context.Context, uid, sessionID string, msg models.AssistantMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, _, err := s.messagesCollection(uid, sessionID).Add(ctx, msg)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save assistant message")
	}
	return nil
}

// ListMessages returns the newest messages first.
func (s *assistantStore) ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.AssistantMessage, error) {
	query := s.messagesCollection(uid, sessionID).Query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var msgs []models.AssistantMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("list", "failed to read assistant messages")
		}
		var m models.AssistantMessage
		if err := doc.DataTo(&m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
