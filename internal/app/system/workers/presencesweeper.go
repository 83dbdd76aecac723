// internal/app/system/workers/presencesweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	presencestore "github.com/dalemusser/teamline/internal/app/store/presence"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/domain/events"
	"go.uber.org/zap"
)

// PresenceSweeper is a background worker that reconciles stale presence
// records. A crashed client can leave its (user, team) record flagged
// online with no live connection behind it; the sweeper flips those
// records offline and broadcasts the transition.
type PresenceSweeper struct {
	presence *presencestore.Store
	hub      *realtime.Hub
	notify   *notify.Coordinator
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewPresenceSweeper creates a presence sweeper running every interval.
func NewPresenceSweeper(ps *presencestore.Store, hub *realtime.Hub, co *notify.Coordinator, logger *zap.Logger, interval time.Duration) *PresenceSweeper {
	return &PresenceSweeper{
		presence: ps,
		hub:      hub,
		notify:   co,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *PresenceSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("presence sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *PresenceSweeper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("presence sweeper stopped")
}

func (w *PresenceSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *PresenceSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	online, err := w.presence.ListOnline(ctx)
	if err != nil {
		w.log.Error("failed to list online presence", zap.Error(err))
		return
	}

	swept := 0
	for _, p := range online {
		// Every live connection sits in its user room, so an empty user
		// room means the user is gone.
		if len(w.hub.UserIDsInScope(events.UserScope(p.UserID))) > 0 {
			continue
		}
		w.notify.OnlineStatusChanged(ctx, p.UserID, p.TeamID, false, "")
		swept++
	}

	if swept > 0 {
		w.log.Info("swept stale presence records", zap.Int("count", swept))
	}
}
