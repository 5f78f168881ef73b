package models

import (
	"time"
)

// Transaction amounts follow the Plaid sign convention: positive is money
// out (expense), negative is money in (income).
type Transaction struct {
	TransactionID string    `firestore:"transactionId" json:"transactionId"` // Plaid transaction_id (doc ID)
	AccountID     string    `firestore:"accountId" json:"accountId"`
	Name          string    `firestore:"name" json:"name"`
	Amount        float64   `firestore:"amount" json:"amount"`
	Date          string    `firestore:"date" json:"date"` // YYYY-MM-DD as Plaid returns
	Category      string    `firestore:"category" json:"category"`
	Merchant      string    `firestore:"merchant" json:"merchant"`
	Pending       bool      `firestore:"pending" json:"pending"`
	Notes         string    `firestore:"notes" json:"notes,omitempty"`
	Tags          []string  `firestore:"tags" json:"tags,omitempty"`
	Hidden        bool      `firestore:"hidden" json:"hidden,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
	SyncedAt      time.Time `firestore:"syncedAt,serverTimestamp" json:"-"`
}

func (t Transaction) IsExpense() bool { return t.Amount > 0 }
func (t Transaction) IsIncome() bool  { return t.Amount < 0 }
