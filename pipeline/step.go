// Package pipeline runs the ordered extraction steps against an
// authenticated session. Each step is an isolated locate+parse unit: a UI
// change breaks one step's selectors, not the pipeline's control flow.
package pipeline

import (
	"bytes"
	"context"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/Suleiman700/mercantile-scraper/browser"
	"github.com/Suleiman700/mercantile-scraper/models"
)

// Step is one named extraction unit. Locate pulls the raw rendered fragment
// for the view out of the session; Parse turns it into a structured value.
// Steps fail independently and must only run post-authentication.
type Step struct {
	name string

	// url is the sub-page carrying this view; empty means the view is
	// read off the current (dashboard) page.
	url string

	// selector matches the view's container element.
	selector string

	parse func(raw string) (any, error)
}

// Name returns the step's data-view name.
func (s *Step) Name() string { return s.name }

// Locate brings the session to the view's page if needed and extracts the
// container's outer HTML.
func (s *Step) Locate(ctx context.Context, sess browser.Session) (string, error) {
	if s.url != "" {
		if err := sess.Navigate(ctx, s.url); err != nil {
			return "", err
		}
	}
	return sess.HTML(ctx, s.selector)
}

// Parse maps the raw fragment to the view's structured value.
func (s *Step) Parse(raw string) (any, error) {
	v, err := s.parse(raw)
	if err != nil {
		if _, typed := err.(*models.ScrapeError); typed {
			return nil, err
		}
		return nil, models.NewScrapeError(models.ErrCodeParse,
			s.name+": content not in expected shape", err)
	}
	return v, nil
}

// narrow returns the concatenated outer HTML of all elements in rawHTML
// matching the CSS selector. If nothing matches, rawHTML is returned
// unchanged so the caller still has something to parse.
func narrow(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
