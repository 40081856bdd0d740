package worker

import (
	"context"
	"log/slog"
	"time"

	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/config"
	"guestgate/internal/usecase"
)

// Cleaner runs the daily event-retention pass at the configured local hour.
type Cleaner struct {
	projection usecase.ProjectionUseCase
	cfg        config.CleanupConfig
	clock      clock.Clock
	logger     *slog.Logger
}

func NewCleaner(projection usecase.ProjectionUseCase, cfg config.CleanupConfig, clk clock.Clock, logger *slog.Logger) *Cleaner {
	return &Cleaner{projection: projection, cfg: cfg, clock: clk, logger: logger}
}

func (c *Cleaner) Run(ctx context.Context) {
	c.logger.Info("retention cleaner started",
		"hour_local", c.cfg.CleanupHourLocal,
		"retention_days", c.cfg.EventRetentionDays)

	for {
		wait := untilNextRun(c.clock.Now().Local(), c.cfg.CleanupHourLocal)
		select {
		case <-ctx.Done():
			c.logger.Info("retention cleaner stopped")
			return
		case <-time.After(wait):
			deleted, err := c.projection.CleanupExpired(ctx, c.cfg.EventRetentionDays)
			if err != nil {
				c.logger.Error("retention cleanup failed", "error", err)
				continue
			}
			c.logger.Info("retention cleanup complete", "deleted", deleted)
		}
	}
}

// untilNextRun is the wait until the next occurrence of hour in now's
// location: later today if the hour is still ahead, else tomorrow.
func untilNextRun(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
