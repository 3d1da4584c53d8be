package models

import (
	"time"
)

// Suggested action types
const (
	ActionRespond = "respond"
	ActionArchive = "archive"
	ActionFlag    = "flag"
)

// Suggestion lifecycle states. Pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// SuggestedAction is a staged, user-reviewable action. The agent never
// executes anything on its own; every directive ends up here until the user
// approves or rejects it. At most one record may ever exist per message,
// enforced by the unique index on MessageID.
type SuggestedAction struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"userId" gorm:"index"`
	Type             string     `json:"type"`
	MessageID        string     `json:"messageId" gorm:"uniqueIndex"`
	ChatID           string     `json:"chatId" gorm:"index"`
	SenderID         string     `json:"senderId"`
	SenderName       string     `json:"senderName,omitempty"`
	SenderPhotoURL   string     `json:"senderPhotoUrl,omitempty"`
	MessageText      string     `json:"messageText,omitempty"`
	MessageTimestamp *time.Time `json:"messageTimestamp,omitempty"`
	SuggestedText    string     `json:"suggestedText,omitempty"`
	Reasoning        string     `json:"reasoning"`
	Status           string     `json:"status" gorm:"index"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// AgentLogEntry is one record in the append-only audit trail
type AgentLogEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"index"`
	Action    string    `json:"action"`
	MessageID string    `json:"messageId" gorm:"index"`
	ChatID    string    `json:"chatId"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit log actions. Categorize is logged alongside annotation writes; the
// rest mirror the suggested action types.
const (
	LogActionCategorize = "categorize"
	LogActionRespond    = "respond"
	LogActionArchive    = "archive"
	LogActionFlag       = "flag"
)

// AgentSettings is the per-user agent toggle, mutated only by the user
type AgentSettings struct {
	UserID       string    `json:"userId" gorm:"primaryKey"`
	AgentEnabled bool      `json:"agentEnabled"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FAQ is a user-owned question/answer pair, read-only to the agent
type FAQ struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"index"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

// RunSummary aggregates one inbox pass
type RunSummary struct {
	MessagesProcessed int `json:"messagesProcessed"`
	ActionsSuggested  int `json:"actionsSuggested"`
	Errors            int `json:"errors"`
}
