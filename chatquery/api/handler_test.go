package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	agentsvc "inbox-agent/backend/agent/service"
	"inbox-agent/backend/ai"
	"inbox-agent/backend/chatquery/models"
	"inbox-agent/backend/chatquery/repository"
	"inbox-agent/backend/chatquery/service"
	inbox "inbox-agent/backend/inbox/models"
	inboxrepo "inbox-agent/backend/inbox/repository"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/jwt"
	"inbox-agent/backend/pkg/logger"
	"inbox-agent/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubGateway struct{}

func (stubGateway) Complete(context.Context, string, ai.CompletionOptions) (*ai.CompletionResult, error) {
	return &ai.CompletionResult{Kind: ai.ResultText, Content: "a general answer"}, nil
}

func (stubGateway) Embed(context.Context, string) ([]float64, error) {
	return nil, nil
}

func newChatRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&inbox.Chat{}, &inbox.ChatParticipant{}, &inbox.Message{}, &models.TranscriptEntry{}))

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	transcript := repository.NewGormTranscriptRepository(db)
	dispatcher := service.NewDispatcher(stubGateway{}, inboxrepo.NewGormMessageRepository(db),
		transcript, agentsvc.NewMemoryRateLimiter(100), config.New(), log)

	jwtService := jwt.NewService("test-secret", time.Hour)
	token, err := jwtService.GenerateToken("user-1")
	require.NoError(t, err)

	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(errors.ErrorHandler())
	group := r.Group("/api/v1/agent")
	group.Use(middleware.JWTAuthMiddleware(jwtService))
	NewChatHandler(dispatcher, transcript).RegisterRoutes(group)

	return r, token
}

func post(t *testing.T, r *gin.Engine, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/agent/chat", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessageAnswers(t *testing.T) {
	r, token := newChatRouter(t)

	w := post(t, r, token, gin.H{"userId": "user-1", "message": "what should I post next?"})

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "a general answer", body.Response)
}

func TestSendMessageRequiresMessage(t *testing.T) {
	r, token := newChatRouter(t)

	w := post(t, r, token, gin.H{"userId": "user-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageRequiresUserID(t *testing.T) {
	r, token := newChatRouter(t)

	w := post(t, r, token, gin.H{"message": "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageRejectsForeignUser(t *testing.T) {
	r, token := newChatRouter(t)

	w := post(t, r, token, gin.H{"userId": "user-2", "message": "hello"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetTranscriptReturnsExchanges(t *testing.T) {
	r, token := newChatRouter(t)
	require.Equal(t, http.StatusOK, post(t, r, token, gin.H{"userId": "user-1", "message": "hi there"}).Code)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/agent/chat/transcript", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hi there")
	assert.Contains(t, w.Body.String(), "a general answer")
}
