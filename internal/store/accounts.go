package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

type accountStore struct {
	client *firestore.Client
}

func NewAccountStore(client *firestore.Client) *accountStore {
	return &accountStore{client: client}
}

func (s *accountStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("accounts")
}

// SyncAccounts upserts the given accounts under the user's namespace.
// Placeholders are never persisted; they only exist in manager memory.
func (s *accountStore) SyncAccounts(ctx context.Context, uid string, accounts []models.Account) error {
	if uid == "" {
		return errs.NewValidationError("uid is required")
	}
	if len(accounts) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(accounts))
	now := time.Now()

	for _, a := range accounts {
		if a.IsPlaceholder {
			continue
		}
		a.UpdatedAt = now
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}

		doc := s.collection(uid).Doc(a.AccountID)
		job, err := bw.Set(doc, a, firestore.MergeAll)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("sync", "failed to queue account write")
		}
		jobs = append(jobs, job)
	}

	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errs.NewDatabaseError("sync", "failed to write account: "+err.Error())
		}
	}
	return nil
}

// LoadAccounts reads the cached accounts, skipping malformed documents.
func (s *accountStore) LoadAccounts(ctx context.Context, uid string) ([]models.Account, error) {
	if uid == "" {
		return nil, errs.NewValidationError("uid is required")
	}

	log := logger.FromContext(ctx)
	iter := s.collection(uid).Documents(ctx)
	defer iter.Stop()

	var accounts []models.Account
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("load", "failed to read accounts: "+err.Error())
		}
		var a models.Account
		if err := doc.DataTo(&a); err != nil {
			log.Warn("skipping malformed account document", "doc_id", doc.Ref.ID)
			continue
		}
		if a.AccountID == "" {
			log.Warn("skipping account document without id", "doc_id", doc.Ref.ID)
			continue
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *accountStore) DeleteAccount(ctx context.Context, uid, accountID string) error {
	_, err := s.collection(uid).Doc(accountID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete account: "+err.Error())
	}
	return nil
}

// DeleteAllAccounts removes every cached account for the user.
func (s *accountStore) DeleteAllAccounts(ctx context.Context, uid string) error {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to list accounts: "+err.Error())
	}

	bw := s.client.BulkWriter(ctx)
	for _, doc := range docs {
		if _, err := bw.Delete(doc.Ref); err != nil {
			bw.End()
			return errs.NewDatabaseError("delete", "failed to queue account delete")
		}
	}
	bw.End()
	return nil
}
