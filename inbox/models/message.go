package models

import (
	"time"
)

// Message categories assigned by the triage agent
const (
	CategoryFan      = "fan"
	CategoryBusiness = "business"
	CategorySpam     = "spam"
	CategoryUrgent   = "urgent"
)

// Message sentiments assigned by the triage agent
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// MessageTypeText is the only message type the agent triages
const MessageTypeText = "text"

// Message is a direct message in the chat store. The agent reads messages and
// writes annotations; it never creates or deletes them. Annotations are
// write-once: once a category is present it is never recomputed.
type Message struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	ChatID             string    `json:"chatId" gorm:"index"`
	SenderID           string    `json:"senderId" gorm:"index"`
	SenderName         string    `json:"senderName"`
	SenderPhotoURL     string    `json:"senderPhotoUrl,omitempty"`
	Text               string    `json:"text"`
	Type               string    `json:"type"`
	Timestamp          time.Time `json:"timestamp" gorm:"index"`
	Category           *string   `json:"category,omitempty" gorm:"index"`
	Sentiment          *string   `json:"sentiment,omitempty"`
	CollaborationScore *int      `json:"collaborationScore,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Categorized reports whether the message already carries annotations
func (m *Message) Categorized() bool {
	return m.Category != nil
}

// Chat is a conversation in the chat store
type Chat struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	LastMessageAt time.Time `json:"lastMessageAt" gorm:"index"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ChatParticipant links a user to a chat
type ChatParticipant struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ChatID string `json:"chatId" gorm:"index:idx_chat_participant,unique"`
	UserID string `json:"userId" gorm:"index:idx_chat_participant,unique;index"`
}

// Annotation is the triple the categorization engine writes onto a message
type Annotation struct {
	Category           string `json:"category"`
	Sentiment          string `json:"sentiment"`
	CollaborationScore int    `json:"collaborationScore"`
}

// CategoryCount is a per-category aggregate over a time window
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// SentimentCount is a per-sentiment aggregate over a time window
type SentimentCount struct {
	Sentiment string `json:"sentiment"`
	Count     int64  `json:"count"`
}

// ChatCount is a per-chat aggregate over a time window
type ChatCount struct {
	ChatID string `json:"chatId"`
	Count  int64  `json:"count"`
}

// PriorityChat is a chat whose latest message scored above the collaboration
// threshold, used by the dispatcher's priority listing
type PriorityChat struct {
	ChatID             string    `json:"chatId"`
	SenderID           string    `json:"senderId"`
	SenderName         string    `json:"senderName"`
	Text               string    `json:"text"`
	Timestamp          time.Time `json:"timestamp"`
	CollaborationScore int       `json:"collaborationScore"`
}
