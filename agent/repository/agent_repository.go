package repository

import (
	"inbox-agent/backend/agent/models"

	"gorm.io/gorm"
)

// AgentLogRepository persists the append-only audit trail
type AgentLogRepository interface {
	Append(entry *models.AgentLogEntry) error
	ListByUser(userID string, limit int) ([]models.AgentLogEntry, error)
}

type GormAgentLogRepository struct {
	db *gorm.DB
}

func NewGormAgentLogRepository(db *gorm.DB) *GormAgentLogRepository {
	return &GormAgentLogRepository{db: db}
}

func (r *GormAgentLogRepository) Append(entry *models.AgentLogEntry) error {
	return r.db.Create(entry).Error
}

func (r *GormAgentLogRepository) ListByUser(userID string, limit int) ([]models.AgentLogEntry, error) {
	var entries []models.AgentLogEntry
	err := r.db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SettingsRepository reads and writes the per-user agent toggle
type SettingsRepository interface {
	Get(userID string) (*models.AgentSettings, error)
	Upsert(settings *models.AgentSettings) error
}

type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns disabled settings when no row exists yet; the agent is opt-in.
func (r *GormSettingsRepository) Get(userID string) (*models.AgentSettings, error) {
	var settings models.AgentSettings
	err := r.db.First(&settings, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return &models.AgentSettings{UserID: userID, AgentEnabled: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *GormSettingsRepository) Upsert(settings *models.AgentSettings) error {
	return r.db.Save(settings).Error
}

// FAQRepository manages user-owned FAQ pairs. The agent only reads them.
type FAQRepository interface {
	ListByUser(userID string) ([]models.FAQ, error)
	Create(faq *models.FAQ) error
	Delete(id, userID string) error
}

type GormFAQRepository struct {
	db *gorm.DB
}

func NewGormFAQRepository(db *gorm.DB) *GormFAQRepository {
	return &GormFAQRepository{db: db}
}

func (r *GormFAQRepository) ListByUser(userID string) ([]models.FAQ, error) {
	var faqs []models.FAQ
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&faqs).Error
	return faqs, err
}

func (r *GormFAQRepository) Create(faq *models.FAQ) error {
	return r.db.Create(faq).Error
}

func (r *GormFAQRepository) Delete(id, userID string) error {
	return r.db.Delete(&models.FAQ{}, "id = ? AND user_id = ?", id, userID).Error
}
