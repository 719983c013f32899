package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scrape    ScrapeConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Output    OutputConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// SlowMotion is the delay rod inserts between browser actions.
	SlowMotion time.Duration // default: 0

	// TypeDelay is the pause between keystrokes when filling login fields.
	// The portal flags instantly-typed credentials as automation.
	TypeDelay time.Duration // default: 120ms

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Debug enables the observability side-channel: CDP event logging and
	// screenshot captures at the login checkpoints and on errors.
	Debug bool // default: false

	// DebugDir is where debug captures are written.
	DebugDir string // default: "./debug"
}

// ScrapeConfig controls the scrape lifecycle budgets and policies.
type ScrapeConfig struct {
	// NavigationTimeout bounds the initial page load.
	NavigationTimeout time.Duration // default: 60s

	// ElementTimeout bounds each element wait (fill, click, extract).
	ElementTimeout time.Duration // default: 30s

	// TotalBudget is the end-to-end wall-clock limit for one scrape.
	TotalBudget time.Duration // default: 90s

	// QueueDepth is how many scrape requests may wait for the single
	// browser slot before new arrivals are rejected with BUSY.
	QueueDepth int // default: 2

	// RetryTransient allows one retry of a scrape attempt that failed
	// with a timeout-class error. Rejected credentials are never retried.
	RetryTransient bool // default: true

	// Preflight probes the portal over plain HTTPS before launching a
	// browser, so an unreachable portal fails fast and cheap.
	Preflight bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// OutputConfig controls the save-mode result sink.
type OutputConfig struct {
	// Dir is where mode=save results are written.
	Dir string // default: "./results"
}

// WebhookConfig controls completion notifications.
type WebhookConfig struct {
	// URL receives a signed POST when a save-mode scrape finishes.
	// Empty disables notifications.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("MERCANTILE_HOST", "0.0.0.0"),
			Port: envIntOr("MERCANTILE_PORT", 8080),
			Mode: envOr("MERCANTILE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("MERCANTILE_HEADLESS", true),
			SlowMotion: envDurationOr("MERCANTILE_SLOW_MOTION", 0),
			TypeDelay:  envDurationOr("MERCANTILE_TYPE_DELAY", 120*time.Millisecond),
			NoSandbox:  envBoolOr("MERCANTILE_NO_SANDBOX", false),
			BrowserBin: os.Getenv("MERCANTILE_BROWSER_BIN"),
			Debug:      envBoolOr("MERCANTILE_DEBUG", false),
			DebugDir:   envOr("MERCANTILE_DEBUG_DIR", "./debug"),
		},
		Scrape: ScrapeConfig{
			NavigationTimeout: envDurationOr("MERCANTILE_NAV_TIMEOUT", 60*time.Second),
			ElementTimeout:    envDurationOr("MERCANTILE_ELEMENT_TIMEOUT", 30*time.Second),
			TotalBudget:       envDurationOr("MERCANTILE_TOTAL_BUDGET", 90*time.Second),
			QueueDepth:        envIntOr("MERCANTILE_QUEUE_DEPTH", 2),
			RetryTransient:    envBoolOr("MERCANTILE_RETRY_TRANSIENT", true),
			Preflight:         envBoolOr("MERCANTILE_PREFLIGHT", true),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("MERCANTILE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("MERCANTILE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MERCANTILE_RATE_RPS", 1.0),
			Burst:             envIntOr("MERCANTILE_RATE_BURST", 3),
		},
		Output: OutputConfig{
			Dir: envOr("MERCANTILE_OUTPUT_DIR", "./results"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("MERCANTILE_WEBHOOK_URL"),
			Secret: os.Getenv("MERCANTILE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("MERCANTILE_LOG_LEVEL", "info"),
			Format: envOr("MERCANTILE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
