package api

import (
	"net/http"

	"inbox-agent/backend/chatquery/repository"
	"inbox-agent/backend/chatquery/service"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ChatHandler exposes the conversational query dispatcher
type ChatHandler struct {
	dispatcher *service.Dispatcher
	transcript repository.TranscriptRepository
}

func NewChatHandler(dispatcher *service.Dispatcher, transcript repository.TranscriptRepository) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher, transcript: transcript}
}

// RegisterRoutes registers the chat routes on an authenticated group
func (h *ChatHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/chat", h.SendMessage)
	group.GET("/chat/transcript", h.GetTranscript)
}

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// SendMessage answers a free-text question about the caller's inbox
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.Error(errors.NewBadRequestError("INVALID_ARGUMENT", "message is required"))
		return
	}
	if req.UserID == "" {
		c.Error(errors.NewBadRequestError("INVALID_ARGUMENT", "userId is required"))
		return
	}
	if req.UserID != middleware.CallerID(c) {
		c.Error(errors.NewForbiddenError("PERMISSION_DENIED", "Cannot query another user's inbox"))
		return
	}

	response, err := h.dispatcher.Answer(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

// GetTranscript returns the caller's recent AI chat transcript
func (h *ChatHandler) GetTranscript(c *gin.Context) {
	entries, err := h.transcript.ListByUser(middleware.CallerID(c), 50)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": entries})
}
