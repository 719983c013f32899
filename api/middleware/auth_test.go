package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Suleiman700/mercantile-scraper/config"
)

func authRouter(apiKeys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(apiKeys))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestAuth_ValidKeyHeader(t *testing.T) {
	r := authRouter([]string{"secret-key"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "secret-key")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_BearerToken(t *testing.T) {
	r := authRouter([]string{"secret-key"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_MissingAndInvalidKeys(t *testing.T) {
	r := authRouter([]string{"secret-key"})

	tests := []struct {
		name   string
		header func(*http.Request)
	}{
		{"no header", func(*http.Request) {}},
		{"wrong key", func(req *http.Request) { req.Header.Set("X-API-Key", "wrong") }},
		{"wrong bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }},
		{"malformed auth header", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			tt.header(req)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestAuth_NoKeysConfiguredIsOpen(t *testing.T) {
	r := authRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", w.Code)
	}
}

func TestRateLimit_Burst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests = %v, first two should pass", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}
