package holds

import (
	"context"
	"time"

	"github.com/sabscarpenter/skytravel/internal/logger"
)

// Reaper periodically deletes expired holds across all flights. Hold attempts
// already purge their own flight, so the sweep only bounds how long stale
// rows linger on flights nobody is booking.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	logger   logger.Logger
}

func NewReaper(manager *Manager, interval time.Duration, log logger.Logger) *Reaper {
	return &Reaper{manager: manager, interval: interval, logger: log}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweep and Run returns immediately.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.Info("Hold sweep disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Hold sweep started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Hold sweep stopped")
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one purge, logging rather than returning failures.
func (r *Reaper) Sweep(ctx context.Context) int {
	n, err := r.manager.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Failed to purge expired holds", "error", err)
		}
		return 0
	}
	if n > 0 {
		r.logger.Info("Purged expired holds", "count", n)
	}
	return n
}
