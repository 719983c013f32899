package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Suleiman700/mercantile-scraper/config"
	"github.com/Suleiman700/mercantile-scraper/models"
	"github.com/Suleiman700/mercantile-scraper/orchestrator"
	"github.com/Suleiman700/mercantile-scraper/sink"
	"github.com/Suleiman700/mercantile-scraper/webhook"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse & validate the request; no browser work happens until the
//     credential triple is complete.
//  2. Orchestrator.Scrape → aggregated result (or typed error).
//  3. mode=json: return the data inline.
//     mode=save: hand the result to the sink, return only the filename,
//     and fire the completion webhook if one is configured.
func Scrape(orch *orchestrator.Orchestrator, snk sink.Sink, whCfg config.WebhookConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()
		if verr := req.Validate(); verr != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error:   verr.ToDetail(),
			})
			return
		}

		result, err := orch.Scrape(c.Request.Context(), req.Credentials())
		if err != nil {
			respondError(c, req.Mode, err, time.Since(totalStart))
			return
		}

		if req.Mode == models.ModeSave {
			filename, saveErr := snk.Write(result)
			if saveErr != nil {
				c.JSON(http.StatusInternalServerError, models.SaveResponse{
					Success: false,
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeInternal,
						Message: saveErr.Error(),
					},
				})
				return
			}
			if whCfg.URL != "" {
				webhook.DeliverAsync(whCfg.URL, whCfg.Secret, &webhook.Event{
					Type:      "scrape.completed",
					Timestamp: time.Now().Unix(),
					Data:      gin.H{"success": result.Success, "filename": filename},
				})
			}
			c.JSON(http.StatusOK, models.SaveResponse{
				Success:  result.Success,
				Message:  "result saved",
				Filename: filename,
			})
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: result.Success,
			Data:    result,
			Timing: models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			},
		})
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response in the envelope matching the request mode.
// Raw credential values never appear in any error path.
func respondError(c *gin.Context, mode string, err error, elapsed time.Duration) {
	se := models.AsScrapeError(err)
	status := mapErrorToStatus(se)

	if mode == models.ModeSave {
		c.JSON(status, models.SaveResponse{
			Success: false,
			Error:   se.ToDetail(),
		})
		return
	}
	c.JSON(status, models.ScrapeResponse{
		Success: false,
		Error:   se.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: elapsed.Milliseconds()},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeAuthRejected:
		return http.StatusUnprocessableEntity // 422: portal said no
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeNavigation, models.ErrCodeAuthUIChanged, models.ErrCodeElementNotFound:
		return http.StatusBadGateway // 502: the portal changed or broke
	case models.ErrCodeBusy:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeNavTimeout, models.ErrCodeAuthTimeout,
		models.ErrCodeExtractTimeout, models.ErrCodeBudgetExceeded:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
