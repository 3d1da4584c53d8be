package service

import (
	"context"
	"io"
	"testing"
	"time"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/ai"
	inbox "inbox-agent/backend/inbox/models"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&inbox.Chat{},
		&inbox.ChatParticipant{},
		&inbox.Message{},
		&models.SuggestedAction{},
		&models.AgentLogEntry{},
		&models.AgentSettings{},
		&models.FAQ{},
	))
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func testConfig() *config.Config {
	return config.New()
}

// fakeGateway routes by function schema name so one fake serves the
// classifier, the FAQ matcher and the responder in a single orchestrator run.
type fakeGateway struct {
	classifyResult string
	matchResult    string
	draftResult    string
	err            error
	calls          int
}

func (g *fakeGateway) Complete(_ context.Context, _ string, opts ai.CompletionOptions) (*ai.CompletionResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if opts.FunctionSchema != nil {
		switch opts.FunctionSchema.Name {
		case "classify_message":
			return &ai.CompletionResult{Kind: ai.ResultFunctionCall, Name: opts.FunctionSchema.Name, Arguments: g.classifyResult}, nil
		case "match_faq":
			return &ai.CompletionResult{Kind: ai.ResultFunctionCall, Name: opts.FunctionSchema.Name, Arguments: g.matchResult}, nil
		}
	}
	return &ai.CompletionResult{Kind: ai.ResultText, Content: g.draftResult}, nil
}

func (g *fakeGateway) Embed(context.Context, string) ([]float64, error) {
	return nil, nil
}

// deniedLimiter simulates a spent quota on every call
type deniedLimiter struct{}

func (deniedLimiter) CheckAndIncrement(context.Context, string) error {
	return ErrRateLimitExceeded
}

func seedMessage(t *testing.T, db *gorm.DB, msg *inbox.Message) {
	t.Helper()
	if msg.Type == "" {
		msg.Type = inbox.MessageTypeText
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	require.NoError(t, db.Create(msg).Error)
}

func seedChat(t *testing.T, db *gorm.DB, chatID string, userIDs ...string) {
	t.Helper()
	require.NoError(t, db.Create(&inbox.Chat{ID: chatID, LastMessageAt: time.Now()}).Error)
	for _, userID := range userIDs {
		require.NoError(t, db.Create(&inbox.ChatParticipant{ChatID: chatID, UserID: userID}).Error)
	}
}
