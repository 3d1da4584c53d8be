package models

import "time"

// Transcript roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TranscriptEntry is one line of a user's AI chat transcript. Both the
// question and the generated answer are persisted per exchange.
type TranscriptEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"index"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
