package worker

import (
	"context"
	"log/slog"
	"time"

	"guestgate/internal/usecase"
)

const sweepInterval = 30 * time.Second

// Sweeper expires grants whose window has closed and revokes session-token
// grants whose MAC never arrived. No controller call is made for plain
// expiry; the controller's own timer was set at authorize.
type Sweeper struct {
	grants usecase.GrantUseCase
	logger *slog.Logger
}

func NewSweeper(grants usecase.GrantUseCase, logger *slog.Logger) *Sweeper {
	return &Sweeper{grants: grants, logger: logger}
}

func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("grant sweeper started", "interval", sweepInterval)
	ticker := time.NewTicker(sweepInterval)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("grant sweeper stopped")
			return
		case <-heartbeat.C:
			s.logger.Info("grant sweeper heartbeat")
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	expired, err := s.grants.ExpireSweep(ctx)
	if err != nil {
		s.logger.Error("expire sweep failed", "error", err)
	} else if expired > 0 {
		s.logger.Info("grants expired", "count", expired)
	}

	revoked, err := s.grants.RevokeUnreconciled(ctx)
	if err != nil {
		s.logger.Error("unreconciled revoke failed", "error", err)
	} else if revoked > 0 {
		s.logger.Info("unreconciled grants revoked", "count", revoked)
	}
}
