package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Suleiman700/mercantile-scraper/auth"
	"github.com/Suleiman700/mercantile-scraper/bank"
	"github.com/Suleiman700/mercantile-scraper/browser"
	"github.com/Suleiman700/mercantile-scraper/config"
	"github.com/Suleiman700/mercantile-scraper/models"
	"github.com/Suleiman700/mercantile-scraper/orchestrator"
	"github.com/Suleiman700/mercantile-scraper/pipeline"
	"github.com/Suleiman700/mercantile-scraper/sink"
)

// countingLauncher refuses to launch but records whether it was asked to.
type countingLauncher struct {
	calls atomic.Int32
}

func (l *countingLauncher) Launch(context.Context) (browser.Session, error) {
	l.calls.Add(1)
	return nil, models.NewScrapeError(models.ErrCodeLaunch, "no browser available in tests", nil)
}

func newScrapeRouter(t *testing.T, launcher browser.Launcher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	portal := bank.Mercantile()
	a := auth.New(portal, nil)
	p := pipeline.New(pipeline.Steps(portal), time.Second, a.Live, nil)
	orch := orchestrator.New(launcher, a, p, config.ScrapeConfig{
		NavigationTimeout: time.Second,
		ElementTimeout:    time.Second,
		TotalBudget:       5 * time.Second,
		QueueDepth:        1,
	}, nil, nil)

	snk, err := sink.NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	r := gin.New()
	r.POST("/scrape", Scrape(orch, snk, config.WebhookConfig{}))
	return r
}

func TestScrape_IncompleteCredentialsRejectedBeforeLaunch(t *testing.T) {
	launcher := &countingLauncher{}
	r := newScrapeRouter(t, launcher)

	bodies := []string{
		`{}`,
		`{"identifier":"12345678"}`,
		`{"identifier":"12345678","password":"p"}`,
		`{"password":"p","securityCode":"9"}`,
	}
	for _, body := range bodies {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
	if n := launcher.calls.Load(); n != 0 {
		t.Errorf("browser launched %d times for invalid requests, want 0", n)
	}
}

func TestScrape_MalformedJSON(t *testing.T) {
	r := newScrapeRouter(t, &countingLauncher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestScrape_LaunchFailureMapsTo500(t *testing.T) {
	launcher := &countingLauncher{}
	r := newScrapeRouter(t, launcher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scrape",
		strings.NewReader(`{"identifier":"12345678","password":"hunter2secret","securityCode":"9"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if n := launcher.calls.Load(); n != 1 {
		t.Errorf("launches = %d, want 1", n)
	}
	if body := w.Body.String(); strings.Contains(body, "hunter2secret") || strings.Contains(body, "12345678") {
		t.Errorf("error response leaks credentials: %s", body)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeUnauthorized, http.StatusUnauthorized},
		{models.ErrCodeAuthRejected, http.StatusUnprocessableEntity},
		{models.ErrCodeRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeNavigation, http.StatusBadGateway},
		{models.ErrCodeAuthUIChanged, http.StatusBadGateway},
		{models.ErrCodeElementNotFound, http.StatusBadGateway},
		{models.ErrCodeBusy, http.StatusServiceUnavailable},
		{models.ErrCodeNavTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeAuthTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeExtractTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeBudgetExceeded, http.StatusGatewayTimeout},
		{models.ErrCodeLaunch, http.StatusInternalServerError},
		{models.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got := mapErrorToStatus(&models.ScrapeError{Code: tt.code})
		if got != tt.want {
			t.Errorf("mapErrorToStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
