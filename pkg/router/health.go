package router

import (
	"context"
	"os"
	"runtime"
	"time"

	"inbox-agent/backend/ai"
	"inbox-agent/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	checker := health.NewChecker(r.Logger, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return r.Container.DB.Exec("SELECT 1").Error
	})
	if r.Container.Redis != nil {
		checker.RegisterRedisCheck(func() error {
			return r.Container.Redis.Ping(context.Background())
		})
	}
	if bg, ok := r.Container.Gateway.(*ai.BreakerGateway); ok {
		checker.RegisterGatewayCheck(func() string {
			return string(bg.State())
		})
	}
	checker.Start()
	r.Engine.GET("/health/components", gin.WrapF(checker.HTTPHandler()))

	healthHandler := func(c *gin.Context) {
		dbStatus := "ok"
		if err := r.Container.DB.Exec("SELECT 1").Error; err != nil {
			dbStatus = err.Error()
			r.Logger.Error("Database health check failed", "error", err)
		}

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		c.JSON(200, gin.H{
			"status":    "ok",
			"version":   os.Getenv("APP_VERSION"),
			"timestamp": time.Now().Format(time.RFC3339),
			"components": gin.H{
				"database": dbStatus,
			},
			"memory": gin.H{
				"alloc_mb":  memStats.Alloc / 1024 / 1024,
				"sys_mb":    memStats.Sys / 1024 / 1024,
				"gc_cycles": memStats.NumGC,
			},
		})
	}

	r.Engine.GET("/health", healthHandler)
	r.Engine.GET("/api/health", healthHandler)
}
