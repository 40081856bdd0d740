package bootstrap

import (
	"log/slog"

	"guestgate/internal/infra/controller"
	"guestgate/internal/infra/controller/omada"
	"guestgate/internal/infra/reservation"
	"guestgate/internal/pkg/config"
	"guestgate/internal/usecase"

	"go.uber.org/fx"
)

var ControllerModule = fx.Module("controller",
	fx.Provide(
		NewController,
		NewReservationSource,
	),
)

func NewController(cfg config.Config, logger *slog.Logger) controller.Controller {
	client := omada.NewClient(cfg.Controller)
	return omada.NewAdapter(client, cfg.Controller.SiteID, logger)
}

func NewReservationSource(cfg config.Config) usecase.ReservationSource {
	return reservation.NewClient(cfg.Reservation)
}
