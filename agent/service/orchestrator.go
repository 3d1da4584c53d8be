package service

import (
	"context"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/agent/repository"
	inbox "inbox-agent/backend/inbox/models"
	inboxrepo "inbox-agent/backend/inbox/repository"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/logger"
	"inbox-agent/backend/shared/observability"
)

// Orchestrator drives one triage pass over a user's inbox: for every chat the
// user participates in, pick the single most recent inbound text message,
// classify it, match it against the FAQ set, apply the decision policy and
// stage the resulting action for review.
type Orchestrator struct {
	messages    inboxrepo.MessageRepository
	settings    repository.SettingsRepository
	suggestions *SuggestionService
	categorizer *Categorizer
	matcher     *FAQMatcher
	responder   *Responder
	audit       *AuditLog
	limiter     RateLimiter
	cfg         *config.Config
	log         *logger.Logger
}

func NewOrchestrator(
	messages inboxrepo.MessageRepository,
	settings repository.SettingsRepository,
	suggestions *SuggestionService,
	categorizer *Categorizer,
	matcher *FAQMatcher,
	responder *Responder,
	audit *AuditLog,
	limiter RateLimiter,
	cfg *config.Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		messages:    messages,
		settings:    settings,
		suggestions: suggestions,
		categorizer: categorizer,
		matcher:     matcher,
		responder:   responder,
		audit:       audit,
		limiter:     limiter,
		cfg:         cfg,
		log:         log,
	}
}

// Run performs one inbox pass. callerID must equal userID; the agent must be
// enabled for the user. Per-chat failures are isolated: they are counted in
// the summary and do not stop the remaining chats.
func (o *Orchestrator) Run(ctx context.Context, callerID, userID string) (*models.RunSummary, error) {
	if userID == "" {
		return nil, errors.NewBadRequestError("INVALID_ARGUMENT", "userId is required")
	}
	if callerID != userID {
		return nil, errors.NewForbiddenError("PERMISSION_DENIED", "Cannot run the agent for another user")
	}

	settings, err := o.settings.Get(userID)
	if err != nil {
		return nil, err
	}
	if !settings.AgentEnabled {
		return nil, errors.NewPreconditionFailedError("AGENT_DISABLED",
			"The triage agent is disabled. Enable it in settings first.")
	}

	observability.AgentRunsTotal.Inc()
	runLog := o.log.WithUserID(userID)

	chatIDs, err := o.messages.ListChatIDs(userID)
	if err != nil {
		return nil, err
	}

	summary := &models.RunSummary{}
	for _, chatID := range chatIDs {
		processed, suggested, err := o.triageChat(ctx, userID, chatID)
		if err != nil {
			runLog.LogError(err, "chat triage failed", "chat_id", chatID)
			observability.AgentRunErrors.Inc()
			summary.Errors++
			continue
		}
		summary.MessagesProcessed += processed
		summary.ActionsSuggested += suggested
	}

	runLog.Info("triage pass finished",
		"chats", len(chatIDs),
		"messages_processed", summary.MessagesProcessed,
		"actions_suggested", summary.ActionsSuggested,
		"errors", summary.Errors,
	)
	return summary, nil
}

// triageChat handles a single chat and reports (processed, suggested) counts
func (o *Orchestrator) triageChat(ctx context.Context, userID, chatID string) (int, int, error) {
	message, err := o.messages.LatestInboundText(chatID, userID)
	if err != nil {
		return 0, 0, err
	}
	if message == nil {
		// Chat has no inbound text messages; nothing to do
		return 0, 0, nil
	}

	// Idempotence guard: a message that ever had a suggestion, in any status,
	// is never triaged again
	exists, err := o.suggestions.ExistsForMessage(message.ID)
	if err != nil {
		return 0, 0, err
	}
	if exists {
		return 0, 0, nil
	}

	annotation, err := o.annotation(ctx, userID, message)
	if err != nil {
		return 0, 0, err
	}
	observability.AgentMessagesProcessed.Inc()

	faqMatch := o.matcher.Match(ctx, userID, message.Text)

	directive := Decide(faqMatch, annotation.Category, annotation.Sentiment,
		annotation.CollaborationScore, o.cfg.Agent.ScoreThreshold)
	if directive.None() {
		return 1, 0, nil
	}

	if directive.NeedsDraft {
		if err := o.limiter.CheckAndIncrement(ctx, userID); err != nil {
			return 1, 0, err
		}
		directive.SuggestedText = o.responder.Draft(ctx, message.Text)
	}

	suggestion, err := o.suggestions.Stage(userID, directive, message)
	if err != nil {
		return 1, 0, err
	}
	if suggestion == nil {
		// Lost the race to a concurrent run; the other run's suggestion stands
		return 1, 0, nil
	}

	o.audit.Append(userID, directive.Type, message.ID, message.ChatID, directive.Reasoning)
	observability.AgentSuggestionsCreated.Inc()
	return 1, 1, nil
}

// annotation returns the message's existing annotations, or classifies it
// once and caches the result on the message record.
func (o *Orchestrator) annotation(ctx context.Context, userID string, message *inbox.Message) (inbox.Annotation, error) {
	if message.Categorized() {
		return inbox.Annotation{
			Category:           *message.Category,
			Sentiment:          *message.Sentiment,
			CollaborationScore: *message.CollaborationScore,
		}, nil
	}

	if err := o.limiter.CheckAndIncrement(ctx, userID); err != nil {
		return inbox.Annotation{}, err
	}
	annotation, err := o.categorizer.Categorize(ctx, message)
	if err != nil {
		return inbox.Annotation{}, err
	}
	o.audit.Append(userID, models.LogActionCategorize, message.ID, message.ChatID,
		"categorized as "+annotation.Category)
	return annotation, nil
}
