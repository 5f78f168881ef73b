package models

import (
	"time"
)

type AssistantMessage struct {
	Role      string    `firestore:"role" json:"role"` // "user" or "assistant"
	Content   string    `firestore:"content" json:"content"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}
