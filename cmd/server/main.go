package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	agentmodels "inbox-agent/backend/agent/models"
	chatmodels "inbox-agent/backend/chatquery/models"
	inboxmodels "inbox-agent/backend/inbox/models"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/di"
	"inbox-agent/backend/pkg/logger"
	"inbox-agent/backend/pkg/router"
	"inbox-agent/backend/pkg/secrets"
	"inbox-agent/backend/shared/observability"
)

func main() {
	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting inbox agent", "version", os.Getenv("APP_VERSION"))

	// Pull the model API key from Vault when configured; env var wins
	if err := secrets.Init(log); err != nil {
		log.Warn("Secrets manager unavailable, using environment variables", "error", err.Error())
	} else if cfg.Gateway.APIKey == "" {
		cfg.Gateway.APIKey = secrets.GetSecretWithDefault(context.Background(), "OPENAI_API_KEY", "")
	}

	shutdownTracing, err := observability.SetupTracing("inbox-agent")
	if err != nil {
		log.LogError(err, "Failed to initialize tracing")
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.LogError(err, "Tracing shutdown failed")
		}
	}()

	if _, err := observability.SetupMetrics(); err != nil {
		log.LogError(err, "Failed to initialize metrics exporter")
		os.Exit(1)
	}

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(
		&inboxmodels.Chat{},
		&inboxmodels.ChatParticipant{},
		&inboxmodels.Message{},
		&agentmodels.SuggestedAction{},
		&agentmodels.AgentLogEntry{},
		&agentmodels.AgentSettings{},
		&agentmodels.FAQ{},
		&chatmodels.TranscriptEntry{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Covering index for the hot triage query: latest inbound text per chat
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat_id, timestamp DESC)").Error; err != nil {
		log.LogError(err, "Failed to create message index", "index", "idx_messages_chat_ts")
	}

	// Initialize dependency injection container
	container, err := di.New(db, cfg, log, di.Options{})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Add OpenAPI validation if schema file is available
	if schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH"); schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
