package components

import (
	"context"
	"log/slog"

	"guestgate/internal/infra/controller"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/config"
	"guestgate/internal/usecase"
	"guestgate/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewRetryWorker,
		NewPoller,
		NewSweeper,
		NewCleaner,
	),
	fx.Invoke(StartWorkers),
)

func NewRetryWorker(
	queueRepo usecase.RetryQueueRepository,
	grants usecase.GrantUseCase,
	audit usecase.AuditUseCase,
	ctrl controller.Controller,
	uow usecase.UnitOfWork,
	clk clock.Clock,
	logger *slog.Logger,
) *worker.RetryWorker {
	return worker.NewRetryWorker(queueRepo, grants, audit, ctrl, uow, clk, logger)
}

func NewPoller(projection usecase.ProjectionUseCase, cfg config.Config, logger *slog.Logger) *worker.Poller {
	return worker.NewPoller(projection, cfg.Reservation.PollIntervalSeconds, logger)
}

func NewSweeper(grants usecase.GrantUseCase, logger *slog.Logger) *worker.Sweeper {
	return worker.NewSweeper(grants, logger)
}

func NewCleaner(projection usecase.ProjectionUseCase, cfg config.Config, clk clock.Clock, logger *slog.Logger) *worker.Cleaner {
	return worker.NewCleaner(projection, cfg.Cleanup, clk, logger)
}

// StartWorkers runs the background loops for the process lifetime. Each loop
// exits on context cancellation during graceful shutdown; queued controller
// operations stay durable in the database across restarts.
func StartWorkers(
	lc fx.Lifecycle,
	retryWorker *worker.RetryWorker,
	poller *worker.Poller,
	sweeper *worker.Sweeper,
	cleaner *worker.Cleaner,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 4)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			run := func(f func(context.Context)) {
				go func() {
					defer func() { done <- struct{}{} }()
					f(ctx)
				}()
			}
			run(retryWorker.Run)
			run(poller.Run)
			run(sweeper.Run)
			run(cleaner.Run)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			for i := 0; i < 4; i++ {
				select {
				case <-done:
				case <-stopCtx.Done():
					return stopCtx.Err()
				}
			}
			return nil
		},
	})
}
