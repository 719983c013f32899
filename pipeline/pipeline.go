package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Suleiman700/mercantile-scraper/browser"
	"github.com/Suleiman700/mercantile-scraper/models"
)

// LivenessFunc reports whether the session still shows the authenticated
// area. Checked before every step; portal sessions expire silently.
type LivenessFunc func(ctx context.Context, sess browser.Session) bool

// Pipeline executes the ordered extraction steps against one authenticated
// session. A failing step is recorded as that view's error and never aborts
// the remaining steps: individual views (loans, say) are legitimately absent
// for some account holders, and partial data beats no data.
type Pipeline struct {
	steps       []*Step
	stepTimeout time.Duration
	live        LivenessFunc
	obs         browser.Observer
}

// New creates a Pipeline. live may be nil to skip liveness prechecks
// (tests); obs may be nil.
func New(steps []*Step, stepTimeout time.Duration, live LivenessFunc, obs browser.Observer) *Pipeline {
	if obs == nil {
		obs = browser.NopObserver{}
	}
	return &Pipeline{steps: steps, stepTimeout: stepTimeout, live: live, obs: obs}
}

// RunAll executes every step and returns one ViewResult per view. It never
// returns an error: failures live inside the per-view results.
func (p *Pipeline) RunAll(ctx context.Context, sess browser.Session) map[string]models.ViewResult {
	views := make(map[string]models.ViewResult, len(p.steps))

	for _, step := range p.steps {
		if ctx.Err() != nil {
			views[step.Name()] = timedOut(step.Name())
			continue
		}

		if p.live != nil && !p.live(ctx, sess) {
			slog.Warn("session no longer authenticated, marking remaining views", "view", step.Name())
			views[step.Name()] = models.ViewResult{Error: &models.ErrorDetail{
				Code:    models.ErrCodeElementNotFound,
				Message: "authenticated session marker missing before " + step.Name(),
			}}
			continue
		}

		views[step.Name()] = p.runStep(ctx, sess, step)
	}
	return views
}

// runStep executes one step under its own timeout and converts any failure
// into the view's error marker.
func (p *Pipeline) runStep(ctx context.Context, sess browser.Session, step *Step) models.ViewResult {
	stepCtx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()

	start := time.Now()
	raw, err := step.Locate(stepCtx, sess)
	if err != nil {
		p.obs.Event("step-failed", "view", step.Name(), "phase", "locate", "error", err.Error())
		browser.Snapshot(ctx, p.obs, sess, "step-"+step.Name()+"-error")
		return stepError(stepCtx, err)
	}

	value, err := step.Parse(raw)
	if err != nil {
		p.obs.Event("step-failed", "view", step.Name(), "phase", "parse", "error", err.Error())
		return stepError(stepCtx, err)
	}

	slog.Debug("view extracted", "view", step.Name(), "duration", time.Since(start))
	return models.ViewResult{Data: value}
}

// stepError maps a step failure to its per-view error marker. A step that
// died because its own deadline expired reports EXTRACTION_TIMEOUT even if
// the underlying operation classified itself differently.
func stepError(stepCtx context.Context, err error) models.ViewResult {
	se := models.AsScrapeError(err)
	if stepCtx.Err() == context.DeadlineExceeded && se.Code != models.ErrCodeElementNotFound {
		se = models.NewScrapeError(models.ErrCodeExtractTimeout, se.Message, err)
	}
	return models.ViewResult{Error: se.ToDetail()}
}

func timedOut(view string) models.ViewResult {
	return models.ViewResult{Error: &models.ErrorDetail{
		Code:    models.ErrCodeExtractTimeout,
		Message: "scrape budget exhausted before " + view,
	}}
}
