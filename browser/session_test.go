package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/Suleiman700/mercantile-scraper/models"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateLaunched, "launched"},
		{StateNavigated, "navigated"},
		{StateAuthenticated, "authenticated"},
		{StateClosed, "closed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSessionStateNeverRegresses(t *testing.T) {
	s := &RodSession{state: StateAuthenticated}
	s.advance(StateNavigated)
	if s.State() != StateAuthenticated {
		t.Errorf("state regressed to %v", s.State())
	}
	s.advance(StateClosed)
	if s.State() != StateClosed {
		t.Errorf("state = %v, want closed", s.State())
	}
}

func TestNavError(t *testing.T) {
	if code := navError(context.DeadlineExceeded, "x").Code; code != models.ErrCodeNavTimeout {
		t.Errorf("code for deadline = %q, want %q", code, models.ErrCodeNavTimeout)
	}
	if code := navError(context.Canceled, "x").Code; code != models.ErrCodeNavTimeout {
		t.Errorf("code for cancel = %q, want %q", code, models.ErrCodeNavTimeout)
	}
	if code := navError(errors.New("connection refused"), "x").Code; code != models.ErrCodeNavigation {
		t.Errorf("code for hard failure = %q, want %q", code, models.ErrCodeNavigation)
	}
}

func TestExtractError(t *testing.T) {
	if code := extractError(context.DeadlineExceeded, "x").Code; code != models.ErrCodeExtractTimeout {
		t.Errorf("code for deadline = %q, want %q", code, models.ErrCodeExtractTimeout)
	}
	if code := extractError(errors.New("detached node"), "x").Code; code != models.ErrCodeInteraction {
		t.Errorf("code for hard failure = %q, want %q", code, models.ErrCodeInteraction)
	}
}
