package store

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/helpers"
)

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTransactionLoadOrderingWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	s := NewTransactionStore(client)
	ctx := context.Background()
	uid := "load-order-user"

	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		{TransactionID: "t1", AccountID: "a1", Name: "Coffee", Amount: 4.50, Date: "2025-05-20", Category: "Coffee Shop", Merchant: "Coffee", CreatedAt: now},
		{TransactionID: "t2", AccountID: "a1", Name: "Payroll", Amount: -2500, Date: "2025-05-30", Category: "Payroll", Merchant: "ACME", CreatedAt: now},
		{TransactionID: "t3", AccountID: "a1", Name: "Lunch", Amount: 14, Date: "2025-05-25", Category: "Restaurants", Merchant: "Lunch", CreatedAt: now},
	}
	if err := s.SyncTransactions(ctx, uid, txs); err != nil {
		t.Fatalf("sync error: %v", err)
	}

	loaded, err := s.LoadTransactions(ctx, uid, 2)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(loaded))
	}
	if loaded[0].TransactionID != "t2" || loaded[1].TransactionID != "t3" {
		t.Fatalf("unexpected order: %s, %s", loaded[0].TransactionID, loaded[1].TransactionID)
	}
}

func TestUpdateTransactionFieldsWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	s := NewTransactionStore(client)
	ctx := context.Background()
	uid := "update-fields-user"

	seed := []models.Transaction{
		{TransactionID: "t1", AccountID: "a1", Name: "Grocery Run", Amount: 62.10, Date: "2025-05-20", Category: "Shops", Merchant: "Market"},
	}
	if err := s.SyncTransactions(ctx, uid, seed); err != nil {
		t.Fatalf("sync error: %v", err)
	}

	err := s.UpdateTransactionFields(ctx, uid, "t1", dto.TransactionUpdate{
		Category: helpers.Ptr("Groceries"),
		Hidden:   helpers.Ptr(true),
	})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}

	doc, err := s.collection(uid).Doc("t1").Get(ctx)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	var got models.Transaction
	if err := doc.DataTo(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.Category != "Groceries" || !got.Hidden {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.Name != "Grocery Run" || got.Amount != 62.10 {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	// Hidden transactions remain in the cache but are excluded from loads.
	loaded, err := s.LoadTransactions(ctx, uid, 0)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("hidden transaction must not load, got %+v", loaded)
	}
}

func TestUpdateTransactionFieldsRequiresIDs(t *testing.T) {
	s := NewTransactionStore(nil)
	if err := s.UpdateTransactionFields(context.Background(), "", "t1", dto.TransactionUpdate{}); err == nil {
		t.Fatal("expected error for missing uid")
	}
	if err := s.UpdateTransactionFields(context.Background(), "uid", "", dto.TransactionUpdate{}); err == nil {
		t.Fatal("expected error for missing transaction id")
	}
}
