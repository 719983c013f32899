package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Suleiman700/mercantile-scraper/api/handler"
	"github.com/Suleiman700/mercantile-scraper/api/middleware"
	"github.com/Suleiman700/mercantile-scraper/config"
	"github.com/Suleiman700/mercantile-scraper/orchestrator"
	"github.com/Suleiman700/mercantile-scraper/sink"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(orch *orchestrator.Orchestrator, snk sink.Sink, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health, outside auth.
	v1.GET("/health", handler.Health(orch, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(orch, snk, cfg.Webhook))

	return r
}
