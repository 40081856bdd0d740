package worker

import (
	"context"
	"log/slog"
	"time"

	"guestgate/internal/usecase"
)

// Poller drives the reservation projector on a fixed cadence. All enabled
// integrations are polled in one synchronized batch; per-integration error
// backoff lives in the projector itself.
type Poller struct {
	projection usecase.ProjectionUseCase
	interval   time.Duration
	logger     *slog.Logger
}

func NewPoller(projection usecase.ProjectionUseCase, intervalSeconds int, logger *slog.Logger) *Poller {
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	return &Poller{
		projection: projection,
		interval:   time.Duration(intervalSeconds) * time.Second,
		logger:     logger,
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("reservation poller started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer heartbeat.Stop()

	// First poll immediately so the cache is warm before the first guest.
	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reservation poller stopped")
			return
		case <-heartbeat.C:
			p.logger.Info("reservation poller heartbeat")
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	if err := p.projection.PollAll(ctx); err != nil {
		p.logger.Error("reservation poll batch failed", "error", err)
	}
}
