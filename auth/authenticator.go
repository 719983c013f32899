// Package auth drives the portal's multi-field login ritual and decides,
// explicitly, whether it worked.
package auth

import (
	"context"
	"log/slog"

	"github.com/Suleiman700/mercantile-scraper/bank"
	"github.com/Suleiman700/mercantile-scraper/browser"
	"github.com/Suleiman700/mercantile-scraper/models"
)

// Authenticator logs a session into the portal.
type Authenticator struct {
	portal *bank.Portal
	obs    browser.Observer
}

// New creates an Authenticator for the given portal. obs may be nil.
func New(portal *bank.Portal, obs browser.Observer) *Authenticator {
	if obs == nil {
		obs = browser.NopObserver{}
	}
	return &Authenticator{portal: portal, obs: obs}
}

// Authenticate navigates to the login entry point, fills the three fields in
// order, submits, and confirms the outcome against explicit page markers.
//
// "The page navigated" is never the success signal: a rejected login also
// navigates, re-rendering the form with an inline error. Success requires the
// authenticated-area marker; everything else maps to one of three causes:
//
//   - AUTH_REJECTED:   the portal said no (error marker, or the form is back)
//   - AUTH_TIMEOUT:    the page never settled within the navigation bound
//   - AUTH_UI_CHANGED: the expected elements are simply not there anymore
func (a *Authenticator) Authenticate(ctx context.Context, sess browser.Session, creds models.Credentials) error {
	log := slog.With("identifier", creds.MaskedIdentifier())

	if err := sess.Navigate(ctx, a.portal.LoginURL); err != nil {
		return authNavError(err, "login page did not load")
	}
	browser.Snapshot(ctx, a.obs, sess, "login-page-loaded")

	fields := []struct {
		selector string
		value    string
	}{
		{a.portal.IdentifierField, creds.Identifier},
		{a.portal.PasswordField, creds.Password},
		{a.portal.SecurityCodeField, creds.SecurityCode},
	}
	for _, f := range fields {
		if err := sess.Fill(ctx, f.selector, f.value); err != nil {
			browser.Snapshot(ctx, a.obs, sess, "login-field-error")
			// A login field that never appears means the login UI moved,
			// not that the portal is slow.
			if code(err) == models.ErrCodeElementNotFound {
				return models.NewScrapeError(models.ErrCodeAuthUIChanged,
					"login field "+f.selector+" not found, portal layout likely changed", err)
			}
			return models.AsScrapeError(err)
		}
	}
	browser.Snapshot(ctx, a.obs, sess, "credentials-entered")

	if err := sess.Click(ctx, a.portal.SubmitButton); err != nil {
		if code(err) == models.ErrCodeElementNotFound {
			return models.NewScrapeError(models.ErrCodeAuthUIChanged,
				"login submit button not found", err)
		}
		return models.AsScrapeError(err)
	}

	if err := sess.WaitSettled(ctx); err != nil {
		if code(err) == models.ErrCodeNavTimeout {
			return models.NewScrapeError(models.ErrCodeAuthTimeout,
				"no settlement after login submit", err)
		}
		return models.AsScrapeError(err)
	}

	outcome, err := a.confirm(ctx, sess)
	if err != nil {
		return err
	}
	switch outcome {
	case outcomeAuthenticated:
		sess.MarkAuthenticated()
		browser.Snapshot(ctx, a.obs, sess, "post-login")
		log.Info("login confirmed")
		return nil
	case outcomeRejected:
		browser.Snapshot(ctx, a.obs, sess, "login-rejected")
		log.Warn("login rejected by portal")
		return models.NewScrapeError(models.ErrCodeAuthRejected,
			"portal rejected the credentials", nil)
	default:
		browser.Snapshot(ctx, a.obs, sess, "login-unrecognized")
		log.Warn("post-login page not recognized")
		return models.NewScrapeError(models.ErrCodeAuthUIChanged,
			"post-login page matches neither dashboard nor login form", nil)
	}
}

type loginOutcome int

const (
	outcomeAuthenticated loginOutcome = iota
	outcomeRejected
	outcomeUnrecognized
)

// confirm classifies the post-submit page. Check order matters: an explicit
// error marker wins over a dashboard marker left in a hidden template.
func (a *Authenticator) confirm(ctx context.Context, sess browser.Session) (loginOutcome, error) {
	if hasErr, err := sess.Has(ctx, a.portal.LoginError); err != nil {
		return outcomeUnrecognized, models.AsScrapeError(err)
	} else if hasErr {
		return outcomeRejected, nil
	}

	if hasDash, err := sess.Has(ctx, a.portal.DashboardMarker); err != nil {
		return outcomeUnrecognized, models.AsScrapeError(err)
	} else if hasDash {
		return outcomeAuthenticated, nil
	}

	// No error, no dashboard. A still-present login form means the submit
	// was swallowed or rejected without a message.
	if hasForm, err := sess.Has(ctx, a.portal.LoginForm); err != nil {
		return outcomeUnrecognized, models.AsScrapeError(err)
	} else if hasForm {
		return outcomeRejected, nil
	}
	return outcomeUnrecognized, nil
}

// Live reports whether the session still shows the authenticated area.
// Portal sessions expire silently; the pipeline re-checks before every step.
func (a *Authenticator) Live(ctx context.Context, sess browser.Session) bool {
	if hasForm, err := sess.Has(ctx, a.portal.LoginForm); err == nil && hasForm {
		return false
	}
	hasDash, err := sess.Has(ctx, a.portal.DashboardMarker)
	return err == nil && hasDash
}

func code(err error) string {
	return models.AsScrapeError(err).Code
}

// authNavError keeps hard navigation failures in their own category; only
// the no-settlement case becomes an authentication timeout.
func authNavError(err error, msg string) error {
	se := models.AsScrapeError(err)
	if se.Code == models.ErrCodeNavTimeout {
		return models.NewScrapeError(models.ErrCodeAuthTimeout, msg, err)
	}
	return se
}
