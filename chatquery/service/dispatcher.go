package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	agentsvc "inbox-agent/backend/agent/service"
	"inbox-agent/backend/ai"
	"inbox-agent/backend/chatquery/models"
	"inbox-agent/backend/chatquery/repository"
	inboxrepo "inbox-agent/backend/inbox/repository"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/logger"
	"inbox-agent/backend/shared/observability"

	"github.com/google/uuid"
)

// Dispatcher answers free-text questions about the user's message corpus. It
// classifies the question with an ordered table of (predicate, handler) pairs
// evaluated first-match-wins, runs the read-only aggregation the intent needs,
// renders a deterministic answer and persists the exchange to the transcript.
type Dispatcher struct {
	gateway    ai.Gateway
	messages   inboxrepo.MessageRepository
	transcript repository.TranscriptRepository
	limiter    agentsvc.RateLimiter
	cfg        *config.Config
	log        *logger.Logger
	intents    []intentRoute
}

type intentRoute struct {
	name    string
	matches func(lowered string) bool
	handle  func(ctx context.Context, userID, question string) (string, error)
}

func NewDispatcher(
	gateway ai.Gateway,
	messages inboxrepo.MessageRepository,
	transcript repository.TranscriptRepository,
	limiter agentsvc.RateLimiter,
	cfg *config.Config,
	log *logger.Logger,
) *Dispatcher {
	d := &Dispatcher{
		gateway:    gateway,
		messages:   messages,
		transcript: transcript,
		limiter:    limiter,
		cfg:        cfg,
		log:        log,
	}

	// Order matters: the first matching intent wins
	d.intents = []intentRoute{
		{"search", containsAny("search", "find"), d.handleSearch},
		{"summary", containsAny("summarize", "summary"), d.handleSummary},
		{"stats", containsAny("stats", "how many", "count"), d.handleStats},
		{"priority", containsAny("urgent", "important", "priority"), d.handlePriority},
		{"business", containsAny("business", "collab", "partnership"), d.handleBusiness},
	}
	return d
}

func containsAny(keywords ...string) func(string) bool {
	return func(lowered string) bool {
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
		return false
	}
}

// Answer handles one conversational query. The rate limiter is applied before
// any work so an exhausted quota costs nothing.
func (d *Dispatcher) Answer(ctx context.Context, userID, question string) (string, error) {
	if question == "" {
		return "", errors.NewBadRequestError("INVALID_ARGUMENT", "message is required")
	}
	if err := d.limiter.CheckAndIncrement(ctx, userID); err != nil {
		return "", err
	}

	lowered := strings.ToLower(question)
	intent := "general"
	handler := d.handleGeneral
	for _, route := range d.intents {
		if route.matches(lowered) {
			intent = route.name
			handler = route.handle
			break
		}
	}

	answer, err := handler(ctx, userID, question)
	if err != nil {
		return "", err
	}
	observability.AIChatQueries.WithLabelValues(intent).Inc()

	d.appendTranscript(userID, models.RoleUser, question)
	d.appendTranscript(userID, models.RoleAssistant, answer)
	return answer, nil
}

var searchTermPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`'([^']+)'`),
	regexp.MustCompile(`(?i)(?:search|find|look)\s+(?:for\s+)?(?:messages?\s+)?(?:about|containing|mentioning|with)\s+(.+)`),
	regexp.MustCompile(`(?i)(?:search|find)\s+(?:for\s+)?(.+)`),
}

// extractSearchTerm pulls the search term out of the question: quoted text
// first, then clause patterns, then whatever follows the keyword. Empty means
// no term could be extracted.
func extractSearchTerm(question string) string {
	for _, pattern := range searchTermPatterns {
		if m := pattern.FindStringSubmatch(question); m != nil {
			term := strings.TrimSpace(m[1])
			term = strings.Trim(term, ".!?")
			if term != "" {
				return term
			}
		}
	}
	return ""
}

func (d *Dispatcher) handleSearch(ctx context.Context, userID, question string) (string, error) {
	term := extractSearchTerm(question)
	if term == "" {
		// No usable term; answer the question free-form instead
		return d.handleGeneral(ctx, userID, question)
	}

	period := parsePeriod(question, d.cfg.Agent.DefaultPeriodDays)
	since := time.Now().Add(-time.Duration(period.Days * 24 * float64(time.Hour)))
	results, err := d.messages.Search(userID, term, since, d.cfg.Agent.SearchResultLimit)
	if err != nil {
		return "", err
	}
	return renderSearch(term, period, results), nil
}

func (d *Dispatcher) handleStats(ctx context.Context, userID, question string) (string, error) {
	period := parsePeriod(question, d.cfg.Agent.DefaultPeriodDays)
	category := extractCategory(question)
	stats, err := d.collectStats(userID, period, category)
	if err != nil {
		return "", err
	}
	return renderStats(period, category, stats), nil
}

func (d *Dispatcher) handleSummary(ctx context.Context, userID, question string) (string, error) {
	period := parsePeriod(question, d.cfg.Agent.DefaultPeriodDays)
	stats, err := d.collectStats(userID, period, "")
	if err != nil {
		return "", err
	}
	priority, err := d.messages.HighPriorityChats(userID, d.cfg.Agent.ScoreThreshold)
	if err != nil {
		return "", err
	}
	return renderSummary(period, stats, priority), nil
}

func (d *Dispatcher) handlePriority(ctx context.Context, userID, question string) (string, error) {
	chats, err := d.messages.HighPriorityChats(userID, d.cfg.Agent.ScoreThreshold)
	if err != nil {
		return "", err
	}
	return renderPriority(chats), nil
}

func (d *Dispatcher) handleBusiness(ctx context.Context, userID, question string) (string, error) {
	period := parsePeriod(question, d.cfg.Agent.DefaultPeriodDays)
	stats, err := d.collectStats(userID, period, "business")
	if err != nil {
		return "", err
	}
	priority, err := d.messages.HighPriorityChats(userID, d.cfg.Agent.ScoreThreshold)
	if err != nil {
		return "", err
	}
	return renderBusiness(period, stats, priority), nil
}

func (d *Dispatcher) handleGeneral(ctx context.Context, userID, question string) (string, error) {
	prompt := "You are an assistant helping a content creator manage their direct-message inbox. " +
		"Answer the following question helpfully and concisely:\n\n" + question
	result, err := d.gateway.Complete(ctx, prompt, ai.CompletionOptions{
		Model:       d.cfg.Agent.ClassifyModel,
		Temperature: d.cfg.Agent.DraftTemp,
	})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func (d *Dispatcher) appendTranscript(userID, role, content string) {
	entry := &models.TranscriptEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := d.transcript.Append(entry); err != nil {
		d.log.LogError(err, "transcript write failed", "user_id", userID, "role", role)
	}
}
