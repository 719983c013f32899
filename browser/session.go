// Package browser owns the automated browser session: one Chromium process,
// one page, bounded-timeout primitives for navigation, input and extraction.
// Everything above it (auth, pipeline, orchestrator) talks to the Session
// interface so it can be tested without a browser.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/Suleiman700/mercantile-scraper/config"
	"github.com/Suleiman700/mercantile-scraper/models"
)

// State is the session lifecycle position. Transitions only move forward.
type State int32

const (
	StateUninitialized State = iota
	StateLaunched
	StateNavigated
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLaunched:
		return "launched"
	case StateNavigated:
		return "navigated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the browser-session port. One live browser process plus its
// active page; exclusively owned by a single in-flight scrape.
type Session interface {
	// Navigate loads a URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Fill locates an input and types value into it with human pacing.
	Fill(ctx context.Context, selector, value string) error

	// Click locates an element and clicks it.
	Click(ctx context.Context, selector string) error

	// WaitSettled waits for the current page's rendering to stabilise.
	WaitSettled(ctx context.Context) error

	// Has reports whether the selector matches right now, without waiting.
	Has(ctx context.Context, selector string) (bool, error)

	// Text returns the visible text of the first match.
	Text(ctx context.Context, selector string) (string, error)

	// HTML returns the outer HTML of the first match.
	HTML(ctx context.Context, selector string) (string, error)

	// Screenshot captures the current viewport as PNG. Best-effort,
	// diagnostics only.
	Screenshot(ctx context.Context) ([]byte, error)

	// MarkAuthenticated advances the session state after a confirmed login.
	MarkAuthenticated()

	// State returns the current lifecycle state.
	State() State

	// Close releases the browser process. Idempotent; safe from any state.
	Close() error
}

// Launcher creates sessions. The orchestrator holds a Launcher rather than a
// Session so tests can count launches and inject failures.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// RodLauncher launches real Chromium sessions via rod.
type RodLauncher struct {
	browserCfg config.BrowserConfig
	scrapeCfg  config.ScrapeConfig
	obs        Observer
}

// NewRodLauncher creates a launcher. obs may be nil for no observability.
func NewRodLauncher(browserCfg config.BrowserConfig, scrapeCfg config.ScrapeConfig, obs Observer) *RodLauncher {
	if obs == nil {
		obs = NopObserver{}
	}
	return &RodLauncher{browserCfg: browserCfg, scrapeCfg: scrapeCfg, obs: obs}
}

// Launch starts a browser process and opens one page with stealth installed.
// On any mid-launch failure the partially-started process is torn down before
// the error is returned.
func (rl *RodLauncher) Launch(ctx context.Context) (Session, error) {
	l := launcher.New().
		Headless(rl.browserCfg.Headless).
		NoSandbox(rl.browserCfg.NoSandbox)

	if rl.browserCfg.BrowserBin != "" {
		l = l.Bin(rl.browserCfg.BrowserBin)
	}

	// Flags that keep Chromium quiet and hide the automation banner.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if rl.browserCfg.SlowMotion > 0 {
		b = b.SlowMotion(rl.browserCfg.SlowMotion)
	}
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to open page", err)
	}

	// Stealth must be installed before the first navigation; it only takes
	// effect for documents created after EvalOnNewDocument.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	// The portal serves Hebrew-first users; a bare English Accept-Language
	// does not match the fingerprint of a real customer's browser.
	err = proto.NetworkSetExtraHTTPHeaders{Headers: proto.NetworkHeaders{
		"Accept-Language": gson.New("he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7"),
	}}.Call(page)
	if err != nil {
		slog.Warn("failed to set extra headers", "error", err)
	}

	sess := &RodSession{
		launcher:  l,
		browser:   b,
		page:      page,
		typeDelay: rl.browserCfg.TypeDelay,
		navWait:   rl.scrapeCfg.NavigationTimeout,
		elemWait:  rl.scrapeCfg.ElementTimeout,
		obs:       rl.obs,
		state:     StateLaunched,
	}
	rl.obs.Attach(page)
	slog.Debug("browser session launched", "controlURL", controlURL)
	return sess, nil
}

// RodSession is the rod-backed Session implementation.
type RodSession struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	typeDelay time.Duration
	navWait   time.Duration
	elemWait  time.Duration
	obs       Observer

	mu        sync.Mutex
	state     State
	closeOnce sync.Once
	closeErr  error
}

// advance moves the state forward; the lifecycle never regresses.
func (s *RodSession) advance(to State) {
	s.mu.Lock()
	if to > s.state {
		s.state = to
	}
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *RodSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MarkAuthenticated records that login was confirmed.
func (s *RodSession) MarkAuthenticated() { s.advance(StateAuthenticated) }

// Navigate loads the URL and waits for rendering to settle. The wait is
// bounded by the navigation timeout, not the element timeout.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.navWait)
	defer cancel()

	p := s.page.Context(navCtx)
	s.obs.Event("navigate", "url", url)
	if err := p.Navigate(url); err != nil {
		return navError(err, "navigation failed")
	}
	if err := s.settle(p); err != nil {
		return navError(err, "page did not settle after navigation")
	}
	s.advance(StateNavigated)
	return nil
}

// WaitSettled waits for the current page to stop mutating, e.g. after a
// form submit re-renders in place.
func (s *RodSession) WaitSettled(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, s.navWait)
	defer cancel()
	if err := s.settle(s.page.Context(navCtx)); err != nil {
		return navError(err, "page did not settle")
	}
	return nil
}

// settle waits for DOM stability. WaitRequestIdle is avoided: its Fetch
// domain conflicts with other interception on recent Chromium, and the
// portal keeps a polling connection open that never goes idle anyway.
func (s *RodSession) settle(p *rod.Page) error {
	return p.WaitDOMStable(300*time.Millisecond, 0.1)
}

// Fill locates the input and types the value one rune at a time, pausing
// typeDelay between keystrokes. The pacing mimics human input; the portal
// rejects forms filled faster than a person could type.
func (s *RodSession) Fill(ctx context.Context, selector, value string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return models.NewScrapeError(models.ErrCodeInteraction, "failed to focus "+selector, err)
	}
	// Select any prefill so the first keystroke replaces it.
	_ = el.SelectAllText()
	for _, r := range value {
		if err := el.Input(string(r)); err != nil {
			return models.NewScrapeError(models.ErrCodeInteraction, "failed to type into "+selector, err)
		}
		if s.typeDelay > 0 {
			select {
			case <-time.After(s.typeDelay):
			case <-ctx.Done():
				return models.NewScrapeError(models.ErrCodeInteraction, "typing interrupted", ctx.Err())
			}
		}
	}
	return nil
}

// Click locates the element and clicks it.
func (s *RodSession) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return models.NewScrapeError(models.ErrCodeInteraction, "failed to click "+selector, err)
	}
	return nil
}

// Has reports whether the selector matches without waiting for it.
func (s *RodSession) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		if ctxErr(err) {
			return false, models.NewScrapeError(models.ErrCodeExtractTimeout, "presence check timed out for "+selector, err)
		}
		return false, models.NewScrapeError(models.ErrCodeInteraction, "presence check failed for "+selector, err)
	}
	return has, nil
}

// Text returns the visible text of the first element matching selector.
func (s *RodSession) Text(ctx context.Context, selector string) (string, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", extractError(err, "failed to read text of "+selector)
	}
	return text, nil
}

// HTML returns the outer HTML of the first element matching selector.
func (s *RodSession) HTML(ctx context.Context, selector string) (string, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return "", err
	}
	html, err := el.HTML()
	if err != nil {
		return "", extractError(err, "failed to read HTML of "+selector)
	}
	return html, nil
}

// Screenshot captures the viewport as PNG.
func (s *RodSession) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// element waits for the selector within the element timeout. A deadline here
// means the target never materialized, which is reported as ELEMENT_NOT_FOUND
// rather than a generic timeout: it is the signal for schema drift.
func (s *RodSession) element(ctx context.Context, selector string) (*rod.Element, error) {
	elemCtx, cancel := context.WithTimeout(ctx, s.elemWait)
	defer cancel()

	el, err := s.page.Context(elemCtx).Element(selector)
	if err != nil {
		if ctxErr(err) || errors.Is(err, &rod.ElementNotFoundError{}) {
			return nil, models.NewScrapeError(models.ErrCodeElementNotFound,
				"element "+selector+" did not appear", err)
		}
		return nil, models.NewScrapeError(models.ErrCodeInteraction,
			"failed to locate "+selector, err)
	}
	return el, nil
}

// Close releases the page, the browser connection and the Chromium process.
// Safe to call multiple times and from any state, including after a launch
// that failed midway.
func (s *RodSession) Close() error {
	s.closeOnce.Do(func() {
		s.obs.Event("session-close", "state", s.State().String())
		if s.page != nil {
			_ = s.page.Close()
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
		}
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		slog.Debug("browser session closed")
	})
	return s.closeErr
}

func ctxErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func navError(err error, msg string) *models.ScrapeError {
	if ctxErr(err) {
		return models.NewScrapeError(models.ErrCodeNavTimeout, msg, err)
	}
	return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
}

func extractError(err error, msg string) *models.ScrapeError {
	if ctxErr(err) {
		return models.NewScrapeError(models.ErrCodeExtractTimeout, msg, err)
	}
	return models.NewScrapeError(models.ErrCodeInteraction, msg, err)
}
