package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

const defaultLoadLimit = 100

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("transactions")
}

// SyncTransactions upserts the given transactions under the user's namespace.
func (s *transactionStore) SyncTransactions(ctx context.Context, uid string, txs []models.Transaction) error {
	if uid == "" {
		return errs.NewValidationError("uid is required")
	}
	if len(txs) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(txs))
	now := time.Now()

	for _, t := range txs {
		t.UpdatedAt = now
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}

		doc := s.collection(uid).Doc(t.TransactionID)
		job, err := bw.Set(doc, t, firestore.MergeAll)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("sync", "failed to queue transaction write")
		}
		jobs = append(jobs, job)
	}

	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errs.NewDatabaseError("sync", "failed to write transaction: "+err.Error())
		}
	}
	return nil
}

// LoadTransactions reads the most recent cached transactions ordered by date
// descending, skipping malformed and hidden documents. A non-positive limit
// uses the default of 100.
func (s *transactionStore) LoadTransactions(ctx context.Context, uid string, limit int) ([]models.Transaction, error) {
	if uid == "" {
		return nil, errs.NewValidationError("uid is required")
	}
	if limit <= 0 {
		limit = defaultLoadLimit
	}

	log := logger.FromContext(ctx)
	iter := s.collection(uid).OrderBy("date", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var txs []models.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("load", "failed to read transactions: "+err.Error())
		}
		var t models.Transaction
		if err := doc.DataTo(&t); err != nil {
			log.Warn("skipping malformed transaction document", "doc_id", doc.Ref.ID)
			continue
		}
		if t.TransactionID == "" {
			log.Warn("skipping transaction document without id", "doc_id", doc.Ref.ID)
			continue
		}
		if t.Hidden {
			continue
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// UpdateTransactionFields merge-writes only the provided fields onto one
// remote transaction document.
func (s *transactionStore) UpdateTransactionFields(ctx context.Context, uid, transactionID string, update dto.TransactionUpdate) error {
	if uid == "" || transactionID == "" {
		return errs.NewValidationError("uid and transaction id are required")
	}

	fields := map[string]any{
		"updatedAt": time.Now(),
		"syncedAt":  firestore.ServerTimestamp,
	}
	if update.Category != nil {
		fields["category"] = *update.Category
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}
	if update.Tags != nil {
		fields["tags"] = *update.Tags
	}
	if update.Hidden != nil {
		fields["hidden"] = *update.Hidden
	}

	_, err := s.collection(uid).Doc(transactionID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update transaction: "+err.Error())
	}
	return nil
}

// DeleteTransactionsByAccount removes every cached transaction belonging to
// one account.
func (s *transactionStore) DeleteTransactionsByAccount(ctx context.Context, uid, accountID string) error {
	docs, err := s.collection(uid).Where("accountId", "==", accountID).Documents(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to list transactions: "+err.Error())
	}
	return s.deleteDocs(ctx, docs)
}

// DeleteAllTransactions removes every cached transaction for the user.
func (s *transactionStore) DeleteAllTransactions(ctx context.Context, uid string) error {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to list transactions: "+err.Error())
	}
	return s.deleteDocs(ctx, docs)
}

func (s *transactionStore) deleteDocs(ctx context.Context, docs []*firestore.DocumentSnapshot) error {
	bw := s.client.BulkWriter(ctx)
	for _, doc := range docs {
		if _, err := bw.Delete(doc.Ref); err != nil {
			bw.End()
			return errs.NewDatabaseError("delete", "failed to queue transaction delete")
		}
	}
	bw.End()
	return nil
}
