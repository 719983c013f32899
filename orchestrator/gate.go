package orchestrator

import (
	"context"
	"sync/atomic"

	"github.com/Suleiman700/mercantile-scraper/models"
)

// gate serializes scrapes: one browser session system-wide. A bounded number
// of requests may queue (FIFO via the channel's wakeup order is not
// guaranteed, but fairness is irrelevant at this depth); anything beyond the
// queue is rejected immediately so two sessions can never coexist and the
// portal never sees concurrent logins.
type gate struct {
	slot     chan struct{}
	waiters  atomic.Int32
	maxQueue int32
}

func newGate(queueDepth int) *gate {
	return &gate{
		slot:     make(chan struct{}, 1),
		maxQueue: int32(queueDepth),
	}
}

// acquire takes the single slot, waiting in the queue if there is room.
// Returns BUSY when the queue is full or the context expires while waiting.
func (g *gate) acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	default:
	}

	if g.waiters.Add(1) > g.maxQueue {
		g.waiters.Add(-1)
		return models.NewScrapeError(models.ErrCodeBusy,
			"a scrape is already running and the queue is full", nil)
	}
	defer g.waiters.Add(-1)

	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return models.NewScrapeError(models.ErrCodeBusy,
			"gave up waiting for the scrape slot", ctx.Err())
	}
}

// release frees the slot. Must only be called after a successful acquire.
func (g *gate) release() {
	<-g.slot
}

// stats snapshots the gate for the health endpoint.
func (g *gate) stats() models.GateStats {
	return models.GateStats{
		Busy:    len(g.slot) > 0,
		Waiting: int(g.waiters.Load()),
	}
}
