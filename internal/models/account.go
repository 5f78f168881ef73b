package models

import (
	"time"
)

type Account struct {
	AccountID     string    `firestore:"accountId" json:"accountId"` // Plaid account_id, or a generated UUID for placeholders
	Name          string    `firestore:"name" json:"name"`
	Type          string    `firestore:"type" json:"type"` // e.g. "depository", "credit"
	Balance       float64   `firestore:"balance" json:"balance"`
	Institution   string    `firestore:"institution" json:"institution"`
	LogoURL       string    `firestore:"logoUrl" json:"logoUrl,omitempty"`
	IsPlaceholder bool      `firestore:"isPlaceholder" json:"isPlaceholder"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
	SyncedAt      time.Time `firestore:"syncedAt,serverTimestamp" json:"-"`
}
