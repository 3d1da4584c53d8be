package repository

import (
	"inbox-agent/backend/chatquery/models"

	"gorm.io/gorm"
)

// TranscriptRepository persists the per-user AI chat transcript
type TranscriptRepository interface {
	Append(entry *models.TranscriptEntry) error
	ListByUser(userID string, limit int) ([]models.TranscriptEntry, error)
}

type GormTranscriptRepository struct {
	db *gorm.DB
}

func NewGormTranscriptRepository(db *gorm.DB) *GormTranscriptRepository {
	return &GormTranscriptRepository{db: db}
}

func (r *GormTranscriptRepository) Append(entry *models.TranscriptEntry) error {
	return r.db.Create(entry).Error
}

func (r *GormTranscriptRepository) ListByUser(userID string, limit int) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	err := r.db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
