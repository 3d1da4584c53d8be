package service

import (
	"context"
	"testing"
	"time"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/agent/repository"
	inbox "inbox-agent/backend/inbox/models"
	inboxrepo "inbox-agent/backend/inbox/repository"
	"inbox-agent/backend/pkg/cache"
	"inbox-agent/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	db           *gorm.DB
	suggestions  *SuggestionService
	logs         *repository.GormAgentLogRepository
	settings     *repository.GormSettingsRepository
}

func newOrchestratorFixture(t *testing.T, gw *fakeGateway, limiter RateLimiter) *orchestratorFixture {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	log := testLogger()

	messages := inboxrepo.NewGormMessageRepository(db)
	suggestionRepo := repository.NewGormSuggestionRepository(db)
	settingsRepo := repository.NewGormSettingsRepository(db)
	faqRepo := repository.NewGormFAQRepository(db)
	logRepo := repository.NewGormAgentLogRepository(db)

	suggestions := NewSuggestionService(suggestionRepo, log)
	audit := NewAuditLog(logRepo, log)
	categorizer := NewCategorizer(gw, messages, cfg, log)
	matcher := NewFAQMatcher(gw, faqRepo, cache.NewCache(), limiter, cfg, log)
	responder := NewResponder(gw, cfg, log)

	return &orchestratorFixture{
		orchestrator: NewOrchestrator(messages, settingsRepo, suggestions, categorizer, matcher, responder, audit, limiter, cfg, log),
		db:           db,
		suggestions:  suggestions,
		logs:         logRepo,
		settings:     settingsRepo,
	}
}

func (f *orchestratorFixture) enableAgent(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.settings.Upsert(&models.AgentSettings{UserID: userID, AgentEnabled: true}))
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func TestRunRequiresUserID(t *testing.T) {
	f := newOrchestratorFixture(t, &fakeGateway{}, NewMemoryRateLimiter(100))

	_, err := f.orchestrator.Run(context.Background(), "", "")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestRunRejectsForeignCaller(t *testing.T) {
	f := newOrchestratorFixture(t, &fakeGateway{}, NewMemoryRateLimiter(100))

	_, err := f.orchestrator.Run(context.Background(), "user-2", "user-1")
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", appErr.Code)
}

func TestRunFailsWhenAgentDisabled(t *testing.T) {
	gw := &fakeGateway{classifyResult: `{"category":"spam","sentiment":"negative","collaborationScore":1}`}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	// No settings row: the default is disabled
	seedChat(t, f.db, "chat-1", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{ID: "m1", ChatID: "chat-1", SenderID: "fan-1", Text: "buy followers now"})

	_, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 412, appErr.StatusCode)
	assert.Equal(t, "AGENT_DISABLED", appErr.Code)

	// Nothing was classified, staged or logged
	assert.Zero(t, gw.calls)
	list, err := f.suggestions.List("user-1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
	entries, err := f.logs.ListByUser("user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunFanMessageGetsDraftedReply(t *testing.T) {
	gw := &fakeGateway{
		classifyResult: `{"category":"fan","sentiment":"positive","collaborationScore":2}`,
		draftResult:    "Thank you! That means a lot.",
	}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	f.enableAgent(t, "user-1")
	seedChat(t, f.db, "chat-1", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{ID: "m1", ChatID: "chat-1", SenderID: "fan-1", SenderName: "Sam", Text: "love your videos"})

	summary, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MessagesProcessed)
	assert.Equal(t, 1, summary.ActionsSuggested)
	assert.Zero(t, summary.Errors)

	list, err := f.suggestions.List("user-1", models.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ActionRespond, list[0].Type)
	assert.Equal(t, "Thank you! That means a lot.", list[0].SuggestedText)
	assert.Equal(t, "m1", list[0].MessageID)
	assert.Equal(t, "Sam", list[0].SenderName)

	// Message got annotated along the way
	var stored inbox.Message
	require.NoError(t, f.db.First(&stored, "id = ?", "m1").Error)
	require.NotNil(t, stored.Category)
	assert.Equal(t, inbox.CategoryFan, *stored.Category)

	// Audit trail: categorize, then the staged action
	entries, err := f.logs.ListByUser("user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	actions := []string{entries[0].Action, entries[1].Action}
	assert.Contains(t, actions, models.LogActionCategorize)
	assert.Contains(t, actions, models.LogActionRespond)
}

func TestRunPreAnnotatedSpamArchivesWithoutGateway(t *testing.T) {
	gw := &fakeGateway{}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	f.enableAgent(t, "user-1")
	seedChat(t, f.db, "chat-1", "user-1", "spammer")
	seedMessage(t, f.db, &inbox.Message{
		ID: "m1", ChatID: "chat-1", SenderID: "spammer", Text: "cheap followers",
		Category: strptr(inbox.CategorySpam), Sentiment: strptr(inbox.SentimentNegative), CollaborationScore: intptr(1),
	})

	summary, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ActionsSuggested)
	assert.Zero(t, gw.calls, "existing annotations and an empty FAQ set must not hit the gateway")

	list, err := f.suggestions.List("user-1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ActionArchive, list[0].Type)
}

func TestRunSkipsMessagesWithAnySuggestion(t *testing.T) {
	gw := &fakeGateway{}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	f.enableAgent(t, "user-1")
	seedChat(t, f.db, "chat-1", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{
		ID: "m1", ChatID: "chat-1", SenderID: "fan-1", Text: "urgent please reply",
		Category: strptr(inbox.CategoryUrgent), Sentiment: strptr(inbox.SentimentNegative), CollaborationScore: intptr(2),
	})

	// A rejected suggestion from an earlier run still blocks re-triage
	created, err := f.suggestions.Stage("user-1", Directive{Type: models.ActionFlag, Reasoning: "urgent"}, &inbox.Message{
		ID: "m1", ChatID: "chat-1", SenderID: "fan-1", Timestamp: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, f.suggestions.Reject("user-1", created.ID))

	summary, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Zero(t, summary.MessagesProcessed)
	assert.Zero(t, summary.ActionsSuggested)
	assert.Zero(t, summary.Errors)

	list, err := f.suggestions.List("user-1", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRunTwiceSuggestsOnlyOnce(t *testing.T) {
	gw := &fakeGateway{classifyResult: `{"category":"urgent","sentiment":"negative","collaborationScore":3}`}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	f.enableAgent(t, "user-1")
	seedChat(t, f.db, "chat-1", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{ID: "m1", ChatID: "chat-1", SenderID: "fan-1", Text: "my order never arrived!!"})

	first, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.ActionsSuggested)

	second, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Zero(t, second.ActionsSuggested)

	list, err := f.suggestions.List("user-1", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRunIsolatesPerChatFailures(t *testing.T) {
	// The gateway is down, so the unannotated chat fails; the pre-annotated
	// one still goes through.
	gw := &fakeGateway{err: assert.AnError}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	f.enableAgent(t, "user-1")

	seedChat(t, f.db, "chat-1", "user-1", "spammer")
	seedMessage(t, f.db, &inbox.Message{
		ID: "m1", ChatID: "chat-1", SenderID: "spammer", Text: "cheap followers",
		Category: strptr(inbox.CategorySpam), Sentiment: strptr(inbox.SentimentNegative), CollaborationScore: intptr(1),
	})
	seedChat(t, f.db, "chat-2", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{ID: "m2", ChatID: "chat-2", SenderID: "fan-1", Text: "hello"})

	summary, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MessagesProcessed)
	assert.Equal(t, 1, summary.ActionsSuggested)
	assert.Equal(t, 1, summary.Errors)
}

func TestRunCountsQuotaExhaustionAsChatError(t *testing.T) {
	gw := &fakeGateway{classifyResult: `{"category":"urgent","sentiment":"negative","collaborationScore":3}`}
	f := newOrchestratorFixture(t, gw, deniedLimiter{})
	f.enableAgent(t, "user-1")
	seedChat(t, f.db, "chat-1", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{ID: "m1", ChatID: "chat-1", SenderID: "fan-1", Text: "help"})

	summary, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
	assert.Zero(t, summary.ActionsSuggested)
	assert.Zero(t, gw.calls, "denied quota must block the classification call")
}

func TestRunSkipsChatsWithoutInboundText(t *testing.T) {
	gw := &fakeGateway{}
	f := newOrchestratorFixture(t, gw, NewMemoryRateLimiter(100))
	f.enableAgent(t, "user-1")

	// Only the user's own message in this chat
	seedChat(t, f.db, "chat-1", "user-1", "fan-1")
	seedMessage(t, f.db, &inbox.Message{ID: "m1", ChatID: "chat-1", SenderID: "user-1", Text: "thanks everyone"})

	summary, err := f.orchestrator.Run(context.Background(), "user-1", "user-1")
	require.NoError(t, err)
	assert.Zero(t, summary.MessagesProcessed)
	assert.Zero(t, summary.Errors)
	assert.Zero(t, gw.calls)
}
