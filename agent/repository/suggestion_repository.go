package repository

import (
	"time"

	"inbox-agent/backend/agent/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SuggestionRepository persists suggested actions.
type SuggestionRepository interface {
	// CreateIfAbsent inserts the suggestion unless any record already exists
	// for the same message, in any status. Returns true when a row was
	// actually inserted. The check-and-insert is a single atomic statement.
	CreateIfAbsent(suggestion *models.SuggestedAction) (bool, error)
	ExistsForMessage(messageID string) (bool, error)
	GetByID(id string) (*models.SuggestedAction, error)
	ListByUser(userID, status string) ([]models.SuggestedAction, error)
	// TransitionFromPending moves a pending suggestion to a terminal status.
	// Returns gorm.ErrRecordNotFound semantics via the bool: false means the
	// record was missing or no longer pending.
	TransitionFromPending(id, userID, status string) (bool, error)
}

type GormSuggestionRepository struct {
	db *gorm.DB
}

func NewGormSuggestionRepository(db *gorm.DB) *GormSuggestionRepository {
	return &GormSuggestionRepository{db: db}
}

// CreateIfAbsent relies on the unique index on message_id plus ON CONFLICT DO
// NOTHING, so two concurrent runs can never both insert for one message.
func (r *GormSuggestionRepository) CreateIfAbsent(suggestion *models.SuggestedAction) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(suggestion)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormSuggestionRepository) ExistsForMessage(messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.SuggestedAction{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormSuggestionRepository) GetByID(id string) (*models.SuggestedAction, error) {
	var suggestion models.SuggestedAction
	if err := r.db.First(&suggestion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (r *GormSuggestionRepository) ListByUser(userID, status string) ([]models.SuggestedAction, error) {
	query := r.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var suggestions []models.SuggestedAction
	err := query.Order("created_at DESC").Find(&suggestions).Error
	return suggestions, err
}

// TransitionFromPending guards the status in the WHERE clause, so a
// suggestion that is already terminal is left untouched.
func (r *GormSuggestionRepository) TransitionFromPending(id, userID, status string) (bool, error) {
	result := r.db.Model(&models.SuggestedAction{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.StatusPending).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
