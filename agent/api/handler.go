package api

import (
	"net/http"
	"time"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/agent/repository"
	"inbox-agent/backend/agent/service"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgentHandler exposes the triage agent over HTTP
type AgentHandler struct {
	orchestrator *service.Orchestrator
	suggestions  *service.SuggestionService
	settings     repository.SettingsRepository
	faqs         repository.FAQRepository
	faqCache     cacheInvalidator
}

// cacheInvalidator is the slice of the FAQ cache the handler needs
type cacheInvalidator interface {
	Delete(key string)
}

func NewAgentHandler(
	orchestrator *service.Orchestrator,
	suggestions *service.SuggestionService,
	settings repository.SettingsRepository,
	faqs repository.FAQRepository,
	faqCache cacheInvalidator,
) *AgentHandler {
	return &AgentHandler{
		orchestrator: orchestrator,
		suggestions:  suggestions,
		settings:     settings,
		faqs:         faqs,
		faqCache:     faqCache,
	}
}

// RegisterRoutes registers the agent routes on an authenticated group
func (h *AgentHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/run", h.Run)
	group.GET("/suggestions", h.ListSuggestions)
	group.POST("/suggestions/:id/approve", h.Approve)
	group.POST("/suggestions/:id/reject", h.Reject)
	group.GET("/settings", h.GetSettings)
	group.PUT("/settings", h.UpdateSettings)
	group.GET("/faqs", h.ListFAQs)
	group.POST("/faqs", h.CreateFAQ)
	group.DELETE("/faqs/:id", h.DeleteFAQ)
}

type runRequest struct {
	UserID string `json:"userId"`
}

// Run triggers one triage pass over the caller's inbox
func (h *AgentHandler) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_ARGUMENT", "userId is required"))
		return
	}

	summary, err := h.orchestrator.Run(c.Request.Context(), middleware.CallerID(c), req.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListSuggestions returns the caller's suggestions, optionally by status
func (h *AgentHandler) ListSuggestions(c *gin.Context) {
	suggestions, err := h.suggestions.List(middleware.CallerID(c), c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Approve marks a pending suggestion approved
func (h *AgentHandler) Approve(c *gin.Context) {
	if err := h.suggestions.Approve(middleware.CallerID(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reject marks a pending suggestion rejected
func (h *AgentHandler) Reject(c *gin.Context) {
	if err := h.suggestions.Reject(middleware.CallerID(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSettings returns the caller's agent settings
func (h *AgentHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(middleware.CallerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	AgentEnabled bool `json:"agentEnabled"`
}

// UpdateSettings toggles the caller's agent
func (h *AgentHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_ARGUMENT", "agentEnabled is required"))
		return
	}

	settings := &models.AgentSettings{
		UserID:       middleware.CallerID(c),
		AgentEnabled: req.AgentEnabled,
		UpdatedAt:    time.Now(),
	}
	if err := h.settings.Upsert(settings); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ListFAQs returns the caller's FAQ pairs
func (h *AgentHandler) ListFAQs(c *gin.Context) {
	faqs, err := h.faqs.ListByUser(middleware.CallerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}

type faqRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

// CreateFAQ adds a question/answer pair to the caller's FAQ set
func (h *AgentHandler) CreateFAQ(c *gin.Context) {
	var req faqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_ARGUMENT", "question and answer are required"))
		return
	}

	userID := middleware.CallerID(c)
	faq := &models.FAQ{
		ID:       uuid.New().String(),
		UserID:   userID,
		Question: req.Question,
		Answer:   req.Answer,
	}
	if err := h.faqs.Create(faq); err != nil {
		c.Error(err)
		return
	}
	h.faqCache.Delete("faqs:" + userID)
	c.JSON(http.StatusCreated, faq)
}

// DeleteFAQ removes one of the caller's FAQ pairs
func (h *AgentHandler) DeleteFAQ(c *gin.Context) {
	userID := middleware.CallerID(c)
	if err := h.faqs.Delete(c.Param("id"), userID); err != nil {
		c.Error(err)
		return
	}
	h.faqCache.Delete("faqs:" + userID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
