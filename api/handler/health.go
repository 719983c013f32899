package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Suleiman700/mercantile-scraper/models"
	"github.com/Suleiman700/mercantile-scraper/orchestrator"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Health returns a handler for GET /api/v1/health.
func Health(orch *orchestrator.Orchestrator, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Scraper: orch.Stats(),
			Version: Version,
		})
	}
}
