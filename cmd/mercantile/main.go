package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Suleiman700/mercantile-scraper/api"
	"github.com/Suleiman700/mercantile-scraper/auth"
	"github.com/Suleiman700/mercantile-scraper/bank"
	"github.com/Suleiman700/mercantile-scraper/browser"
	"github.com/Suleiman700/mercantile-scraper/config"
	"github.com/Suleiman700/mercantile-scraper/orchestrator"
	"github.com/Suleiman700/mercantile-scraper/pipeline"
	"github.com/Suleiman700/mercantile-scraper/sink"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("mercantile-scraper starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"headless", cfg.Browser.Headless,
		"debug", cfg.Browser.Debug,
	)

	// ── 3. Wire the scrape core ─────────────────────────────────────
	var obs browser.Observer = browser.NopObserver{}
	if cfg.Browser.Debug {
		obs = browser.NewDebugObserver(cfg.Browser.DebugDir)
	}

	portal := bank.Mercantile()
	launcher := browser.NewRodLauncher(cfg.Browser, cfg.Scrape, obs)
	authenticator := auth.New(portal, obs)
	pipe := pipeline.New(pipeline.Steps(portal), cfg.Scrape.ElementTimeout, authenticator.Live, obs)

	var preflight orchestrator.PreflightFunc
	if cfg.Scrape.Preflight {
		preflight = func(ctx context.Context) error {
			return browser.Preflight(ctx, portal.LoginURL)
		}
	}

	orch := orchestrator.New(launcher, authenticator, pipe, cfg.Scrape, preflight, obs)

	// ── 4. Result sink for mode=save ────────────────────────────────
	snk, err := sink.NewFileSink(cfg.Output.Dir)
	if err != nil {
		slog.Error("failed to initialise result sink", "error", err)
		os.Exit(1)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(orch, snk, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give an in-flight scrape a moment to reach its own teardown path.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("mercantile-scraper stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
