package service

import (
	"time"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/agent/repository"
	inbox "inbox-agent/backend/inbox/models"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SuggestionService owns the suggestion lifecycle: pending on creation,
// approved or rejected as terminal states set only by explicit user calls.
type SuggestionService struct {
	suggestions repository.SuggestionRepository
	log         *logger.Logger
}

func NewSuggestionService(suggestions repository.SuggestionRepository, log *logger.Logger) *SuggestionService {
	return &SuggestionService{suggestions: suggestions, log: log}
}

// Stage creates a pending suggestion for the message unless one already
// exists for it in any status. Returns the created record, or nil when the
// message already had one (a silent no-op, not an error).
func (s *SuggestionService) Stage(userID string, directive Directive, message *inbox.Message) (*models.SuggestedAction, error) {
	ts := message.Timestamp
	suggestion := &models.SuggestedAction{
		ID:               uuid.New().String(),
		UserID:           userID,
		Type:             directive.Type,
		MessageID:        message.ID,
		ChatID:           message.ChatID,
		SenderID:         message.SenderID,
		SenderName:       message.SenderName,
		SenderPhotoURL:   message.SenderPhotoURL,
		MessageText:      message.Text,
		MessageTimestamp: &ts,
		SuggestedText:    directive.SuggestedText,
		Reasoning:        directive.Reasoning,
		Status:           models.StatusPending,
	}

	created, err := s.suggestions.CreateIfAbsent(suggestion)
	if err != nil {
		return nil, err
	}
	if !created {
		s.log.Debug("suggestion already exists for message, skipping", "message_id", message.ID)
		return nil, nil
	}
	return suggestion, nil
}

// Approve moves a pending suggestion to approved. A suggestion that is
// already terminal yields a conflict error rather than silently overwriting
// its timestamps.
func (s *SuggestionService) Approve(userID, actionID string) error {
	return s.transition(userID, actionID, models.StatusApproved)
}

// Reject moves a pending suggestion to rejected
func (s *SuggestionService) Reject(userID, actionID string) error {
	return s.transition(userID, actionID, models.StatusRejected)
}

func (s *SuggestionService) transition(userID, actionID, status string) error {
	updated, err := s.suggestions.TransitionFromPending(actionID, userID, status)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	// Distinguish a missing record from a non-pending one
	existing, err := s.suggestions.GetByID(actionID)
	if err == gorm.ErrRecordNotFound {
		return errors.NewNotFoundError("SUGGESTION_NOT_FOUND", "Suggested action not found")
	}
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return errors.NewForbiddenError("PERMISSION_DENIED", "Suggested action belongs to another user")
	}
	return errors.NewConflictError("SUGGESTION_NOT_PENDING",
		"Suggested action was already "+existing.Status)
}

// ExistsForMessage reports whether the message ever had a suggestion staged,
// in any status
func (s *SuggestionService) ExistsForMessage(messageID string) (bool, error) {
	return s.suggestions.ExistsForMessage(messageID)
}

// List returns the user's suggestions, optionally filtered by status
func (s *SuggestionService) List(userID, status string) ([]models.SuggestedAction, error) {
	return s.suggestions.ListByUser(userID, status)
}

// AuditLog appends entries to the agent's append-only trail. Failures are
// swallowed so audit logging can never abort the triage workflow.
type AuditLog struct {
	entries repository.AgentLogRepository
	log     *logger.Logger
}

func NewAuditLog(entries repository.AgentLogRepository, log *logger.Logger) *AuditLog {
	return &AuditLog{entries: entries, log: log}
}

// Append records the action and returns the entry ID, or an empty string if
// the write failed.
func (a *AuditLog) Append(userID, action, messageID, chatID, result string) string {
	entry := &models.AgentLogEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		MessageID: messageID,
		ChatID:    chatID,
		Result:    result,
		Timestamp: time.Now(),
	}
	if err := a.entries.Append(entry); err != nil {
		a.log.LogError(err, "audit log write failed",
			"user_id", userID,
			"action", action,
			"message_id", messageID,
		)
		return ""
	}
	return entry.ID
}
