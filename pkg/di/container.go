package di

import (
	"fmt"

	agentapi "inbox-agent/backend/agent/api"
	agentrepo "inbox-agent/backend/agent/repository"
	agentsvc "inbox-agent/backend/agent/service"
	"inbox-agent/backend/ai"
	chatapi "inbox-agent/backend/chatquery/api"
	chatrepo "inbox-agent/backend/chatquery/repository"
	chatsvc "inbox-agent/backend/chatquery/service"
	inboxrepo "inbox-agent/backend/inbox/repository"
	"inbox-agent/backend/pkg/cache"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/jwt"
	"inbox-agent/backend/pkg/logger"
	sharedredis "inbox-agent/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB          *gorm.DB
	Config      *config.Config
	Logger      *logger.Logger
	JWTService  *jwt.Service
	Gateway     ai.Gateway
	RateLimiter agentsvc.RateLimiter
	Redis       *sharedredis.RedisClient

	Messages    inboxrepo.MessageRepository
	Suggestions *agentsvc.SuggestionService
	Settings    agentrepo.SettingsRepository
	FAQs        agentrepo.FAQRepository

	Orchestrator *agentsvc.Orchestrator
	Dispatcher   *chatsvc.Dispatcher
	Transcript   chatrepo.TranscriptRepository

	AgentHandler *agentapi.AgentHandler
	ChatHandler  *chatapi.ChatHandler
}

// Options allow tests and alternate entrypoints to substitute dependencies
type Options struct {
	// Gateway overrides the OpenAI-backed gateway when set
	Gateway ai.Gateway
	// RateLimiter overrides the Redis-backed limiter when set
	RateLimiter agentsvc.RateLimiter
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	gateway := opts.Gateway
	if gateway == nil {
		openAIGateway, err := ai.NewOpenAIGateway(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating model gateway: %w", err)
		}
		gateway = ai.NewBreakerGateway(openAIGateway, log)
	}

	var redisClient *sharedredis.RedisClient
	limiter := opts.RateLimiter
	if limiter == nil {
		redisClient = sharedredis.NewRedisClient(cfg)
		limiter = agentsvc.NewRedisRateLimiter(redisClient, cfg.Agent.HourlyQuota)
	}

	// Repositories
	messages := inboxrepo.NewGormMessageRepository(db)
	suggestionRepo := agentrepo.NewGormSuggestionRepository(db)
	logRepo := agentrepo.NewGormAgentLogRepository(db)
	settings := agentrepo.NewGormSettingsRepository(db)
	faqs := agentrepo.NewGormFAQRepository(db)
	transcript := chatrepo.NewGormTranscriptRepository(db)

	// Agent services
	faqCache := cache.NewCache()
	suggestions := agentsvc.NewSuggestionService(suggestionRepo, log.WithComponent("suggestions"))
	audit := agentsvc.NewAuditLog(logRepo, log.WithComponent("audit"))
	categorizer := agentsvc.NewCategorizer(gateway, messages, cfg, log.WithComponent("categorizer"))
	matcher := agentsvc.NewFAQMatcher(gateway, faqs, faqCache, limiter, cfg, log.WithComponent("faq-matcher"))
	responder := agentsvc.NewResponder(gateway, cfg, log.WithComponent("responder"))
	orchestrator := agentsvc.NewOrchestrator(messages, settings, suggestions, categorizer, matcher, responder, audit, limiter, cfg, log.WithComponent("orchestrator"))

	// Dispatcher
	dispatcher := chatsvc.NewDispatcher(gateway, messages, transcript, limiter, cfg, log.WithComponent("dispatcher"))

	// HTTP handlers
	agentHandler := agentapi.NewAgentHandler(orchestrator, suggestions, settings, faqs, faqCache)
	chatHandler := chatapi.NewChatHandler(dispatcher, transcript)

	return &Container{
		DB:           db,
		Config:       cfg,
		Logger:       log,
		JWTService:   jwtService,
		Gateway:      gateway,
		RateLimiter:  limiter,
		Redis:        redisClient,
		Messages:     messages,
		Suggestions:  suggestions,
		Settings:     settings,
		FAQs:         faqs,
		Orchestrator: orchestrator,
		Dispatcher:   dispatcher,
		Transcript:   transcript,
		AgentHandler: agentHandler,
		ChatHandler:  chatHandler,
	}, nil
}
