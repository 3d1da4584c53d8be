package repository

import (
	"strings"
	"time"

	"inbox-agent/backend/inbox/models"

	"gorm.io/gorm"
)

// MessageRepository is a read/annotate view of the chat store. The agent never
// creates or deletes messages through it.
type MessageRepository interface {
	GetByID(id string) (*models.Message, error)
	ListChatIDs(userID string) ([]string, error)
	LatestInboundText(chatID, userID string) (*models.Message, error)
	Annotate(id string, annotation models.Annotation) error
	Search(userID, term string, since time.Time, limit int) ([]models.Message, error)
	CountSince(userID string, since time.Time) (int64, error)
	CountByCategory(userID string, since time.Time) ([]models.CategoryCount, error)
	CountBySentiment(userID string, since time.Time) ([]models.SentimentCount, error)
	CountByChat(userID string, since time.Time) ([]models.ChatCount, error)
	HighPriorityChats(userID string, threshold int) ([]models.PriorityChat, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) GetByID(id string) (*models.Message, error) {
	var message models.Message
	if err := r.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) ListChatIDs(userID string) ([]string, error) {
	var chatIDs []string
	err := r.db.Model(&models.ChatParticipant{}).
		Where("user_id = ?", userID).
		Pluck("chat_id", &chatIDs).Error
	return chatIDs, err
}

// LatestInboundText returns the single most recent text message in the chat
// not sent by userID, or nil when the chat has none.
func (r *GormMessageRepository) LatestInboundText(chatID, userID string) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("chat_id = ? AND sender_id <> ? AND type = ?", chatID, userID, models.MessageTypeText).
		Order("timestamp DESC").
		First(&message).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// Annotate writes the classification triple onto a message. The update is
// guarded on category IS NULL so existing annotations are never recomputed.
func (r *GormMessageRepository) Annotate(id string, annotation models.Annotation) error {
	return r.db.Model(&models.Message{}).
		Where("id = ? AND category IS NULL", id).
		Updates(map[string]any{
			"category":            annotation.Category,
			"sentiment":           annotation.Sentiment,
			"collaboration_score": annotation.CollaborationScore,
		}).Error
}

func (r *GormMessageRepository) participantChats(userID string) *gorm.DB {
	return r.db.Model(&models.ChatParticipant{}).
		Select("chat_id").
		Where("user_id = ?", userID)
}

func (r *GormMessageRepository) inboundSince(userID string, since time.Time) *gorm.DB {
	return r.db.Model(&models.Message{}).
		Where("chat_id IN (?)", r.participantChats(userID)).
		Where("sender_id <> ?", userID).
		Where("timestamp >= ?", since)
}

func (r *GormMessageRepository) Search(userID, term string, since time.Time, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.inboundSince(userID, since).
		Where("LOWER(text) LIKE ?", "%"+strings.ToLower(term)+"%").
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) CountSince(userID string, since time.Time) (int64, error) {
	var count int64
	err := r.inboundSince(userID, since).Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) CountByCategory(userID string, since time.Time) ([]models.CategoryCount, error) {
	var counts []models.CategoryCount
	err := r.inboundSince(userID, since).
		Where("category IS NOT NULL").
		Select("category, COUNT(*) as count").
		Group("category").
		Scan(&counts).Error
	return counts, err
}

func (r *GormMessageRepository) CountBySentiment(userID string, since time.Time) ([]models.SentimentCount, error) {
	var counts []models.SentimentCount
	err := r.inboundSince(userID, since).
		Where("sentiment IS NOT NULL").
		Select("sentiment, COUNT(*) as count").
		Group("sentiment").
		Scan(&counts).Error
	return counts, err
}

func (r *GormMessageRepository) CountByChat(userID string, since time.Time) ([]models.ChatCount, error) {
	var counts []models.ChatCount
	err := r.inboundSince(userID, since).
		Select("chat_id, COUNT(*) as count").
		Group("chat_id").
		Scan(&counts).Error
	return counts, err
}

// HighPriorityChats returns chats whose latest message carries a collaboration
// score above the threshold, sorted descending by score.
func (r *GormMessageRepository) HighPriorityChats(userID string, threshold int) ([]models.PriorityChat, error) {
	var chats []models.PriorityChat
	err := r.db.Table("messages AS m").
		Select("m.chat_id, m.sender_id, m.sender_name, m.text, m.timestamp, m.collaboration_score").
		Joins("JOIN (SELECT chat_id, MAX(timestamp) AS latest_ts FROM messages GROUP BY chat_id) latest ON latest.chat_id = m.chat_id AND latest.latest_ts = m.timestamp").
		Where("m.chat_id IN (?)", r.participantChats(userID)).
		Where("m.collaboration_score > ?", threshold).
		Order("m.collaboration_score DESC").
		Scan(&chats).Error
	return chats, err
}
