package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/Suleiman700/mercantile-scraper/models"
)

func TestGate_SingleSlot(t *testing.T) {
	g := newGate(1)
	ctx := context.Background()

	if err := g.acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	second := make(chan error, 1)
	go func() { second <- g.acquire(ctx) }()

	waitFor(t, func() bool { return g.stats().Waiting == 1 })

	// Queue depth 1 is now taken; the next arrival is rejected immediately.
	err := g.acquire(ctx)
	if err == nil {
		t.Fatal("expected BUSY for arrival beyond queue depth")
	}
	if code := models.AsScrapeError(err).Code; code != models.ErrCodeBusy {
		t.Fatalf("code = %q, want %q", code, models.ErrCodeBusy)
	}

	g.release()
	select {
	case err := <-second:
		if err != nil {
			t.Fatalf("queued waiter: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued waiter never got the slot")
	}
	g.release()
}

func TestGate_GiveUpWhileWaiting(t *testing.T) {
	g := newGate(1)
	if err := g.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer g.release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.acquire(ctx)
	if err == nil {
		t.Fatal("expected BUSY after waiting out the context")
	}
	if code := models.AsScrapeError(err).Code; code != models.ErrCodeBusy {
		t.Errorf("code = %q, want %q", code, models.ErrCodeBusy)
	}
}

func TestGate_Stats(t *testing.T) {
	g := newGate(0)
	if s := g.stats(); s.Busy || s.Waiting != 0 {
		t.Errorf("idle stats = %+v", s)
	}
	if err := g.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s := g.stats(); !s.Busy {
		t.Errorf("stats after acquire = %+v", s)
	}
	g.release()
	if s := g.stats(); s.Busy {
		t.Errorf("stats after release = %+v", s)
	}
}

// waitFor polls cond for up to a second.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
