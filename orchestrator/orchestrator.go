// Package orchestrator composes launcher, authenticator and pipeline into
// one request/response unit: one scrape, one session, guaranteed teardown.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Suleiman700/mercantile-scraper/auth"
	"github.com/Suleiman700/mercantile-scraper/browser"
	"github.com/Suleiman700/mercantile-scraper/config"
	"github.com/Suleiman700/mercantile-scraper/models"
	"github.com/Suleiman700/mercantile-scraper/pipeline"
)

// stage is the orchestrator's position in one scrape. Purely diagnostic;
// control flow is the function itself.
type stage string

const (
	stageSessionStarting stage = "sessionStarting"
	stageAuthenticating  stage = "authenticating"
	stageExtracting      stage = "extracting"
	stageFinalizing      stage = "finalizing"
)

// PreflightFunc probes the portal before a browser is launched.
type PreflightFunc func(ctx context.Context) error

// Orchestrator runs scrapes one at a time against the portal.
type Orchestrator struct {
	launcher  browser.Launcher
	auth      *auth.Authenticator
	pipe      *pipeline.Pipeline
	obs       browser.Observer
	cfg       config.ScrapeConfig
	gate      *gate
	preflight PreflightFunc
}

// New creates an Orchestrator. preflight and obs may be nil.
func New(launcher browser.Launcher, authenticator *auth.Authenticator, pipe *pipeline.Pipeline,
	cfg config.ScrapeConfig, preflight PreflightFunc, obs browser.Observer) *Orchestrator {
	if obs == nil {
		obs = browser.NopObserver{}
	}
	return &Orchestrator{
		launcher:  launcher,
		auth:      authenticator,
		pipe:      pipe,
		obs:       obs,
		cfg:       cfg,
		gate:      newGate(cfg.QueueDepth),
		preflight: preflight,
	}
}

// Stats reports the scrape gate state for the health endpoint.
func (o *Orchestrator) Stats() models.GateStats { return o.gate.stats() }

// minRetryBudget is how much of the total budget must remain for a second
// attempt to be worth starting.
const minRetryBudget = 15 * time.Second

// Scrape runs one full scrape: acquire the slot, authenticate, extract,
// assemble. The total wall-clock budget covers queue wait, both attempts and
// teardown; exceeding it yields SCRAPE_TIMEOUT.
//
// Timeout-class failures get exactly one retry with a fresh session.
// AUTH_REJECTED is never retried: hammering wrong credentials locks the
// account at the bank.
func (o *Orchestrator) Scrape(ctx context.Context, creds models.Credentials) (*models.ScrapeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TotalBudget)
	defer cancel()

	if err := o.gate.acquire(ctx); err != nil {
		return nil, err
	}
	defer o.gate.release()

	if o.preflight != nil {
		if err := o.preflight(ctx); err != nil {
			return nil, budgetError(ctx, err)
		}
	}

	result, err := o.attempt(ctx, creds)
	if err == nil {
		return result, nil
	}

	se := models.AsScrapeError(err)
	if o.cfg.RetryTransient && se.Retryable() {
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) >= minRetryBudget {
			slog.Warn("scrape attempt failed with transient error, retrying once",
				"code", se.Code, "error", se.Message)
			result, err = o.attempt(ctx, creds)
			if err == nil {
				return result, nil
			}
		}
	}
	return nil, budgetError(ctx, err)
}

// attempt runs one session lifecycle. The deferred Close is the guaranteed
// teardown path: it runs on success, on every error return, and on panic,
// so a browser process can never outlive its scrape.
func (o *Orchestrator) attempt(ctx context.Context, creds models.Credentials) (_ *models.ScrapeResult, err error) {
	started := time.Now()
	o.transition(stageSessionStarting)

	sess, err := o.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		o.transition(stageFinalizing)
		if closeErr := sess.Close(); closeErr != nil {
			slog.Warn("session close reported error", "error", closeErr)
		}
	}()
	defer func() {
		if err != nil {
			browser.Snapshot(ctx, o.obs, sess, "scrape-error")
		}
	}()

	o.transition(stageAuthenticating)
	if err = o.auth.Authenticate(ctx, sess, creds); err != nil {
		return nil, err
	}
	authMs := time.Since(started)

	o.transition(stageExtracting)
	views := o.pipe.RunAll(ctx, sess)

	result := &models.ScrapeResult{
		Timestamp: time.Now().UTC(),
		Views:     views,
	}
	for _, vr := range views {
		if vr.Error == nil {
			result.Success = true
			break
		}
	}

	slog.Info("scrape finished",
		"success", result.Success,
		"views", len(views),
		"authDuration", authMs,
		"totalDuration", time.Since(started),
	)
	return result, nil
}

func (o *Orchestrator) transition(s stage) {
	o.obs.Event("stage", "stage", string(s))
	slog.Debug("orchestrator stage", "stage", string(s))
}

// budgetError converts a failure caused by the overall deadline into
// SCRAPE_TIMEOUT; everything else passes through typed.
func budgetError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeBudgetExceeded,
			"total scrape budget exceeded", err)
	}
	return models.AsScrapeError(err)
}
