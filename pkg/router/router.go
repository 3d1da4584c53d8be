package router

import (
	"net/http"

	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/di"
	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/pkg/logger"
	"inbox-agent/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.Security.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			container.Logger.Warn("Invalid trusted proxy configuration", "error", err.Error())
		}
	}

	// Request IDs first, then the logger so every request is captured with
	// the same ID
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(bodySizeLimit(cfg.Security.MaxBodySize))

	// Per-IP rate limiting guards the HTTP surface; the per-user hourly
	// quota on model spend is enforced separately inside the services
	limiterOpts := middleware.DefaultRateLimiterOptions()
	if cfg.Security.RateLimit > 0 {
		limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	}
	if cfg.Security.RateLimitBurst > 0 {
		limiterOpts.Burst = cfg.Security.RateLimitBurst
	}
	rateLimiter := middleware.NewRateLimiter(container.Logger, limiterOpts)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	r.setupHealthRoutes()
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService)

	v1 := r.Engine.Group("/api/v1")

	agentRoutes := v1.Group("/agent")
	agentRoutes.Use(jwtAuth)
	{
		r.Container.AgentHandler.RegisterRoutes(agentRoutes)
		r.Container.ChatHandler.RegisterRoutes(agentRoutes)
	}
}

// bodySizeLimit caps request bodies so oversized payloads fail during read
// instead of buffering in memory.
func bodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "":
			// Same-origin or non-browser client
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
