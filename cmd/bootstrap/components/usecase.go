package components

import (
	"context"

	"guestgate/internal/domain/voucher"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/config"
	"guestgate/internal/usecase"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		func() voucher.CodeSource { return voucher.CryptoCodeSource{} },
		usecase.NewAuditUseCase,
		usecase.NewVoucherUseCase,
		usecase.NewGrantUseCase,
		usecase.NewBookingUseCase,
		usecase.NewGuestAuthUseCase,
		usecase.NewProjectionUseCase,
		usecase.NewAuthUseCase,
		usecase.NewIntegrationUseCase,
		usecase.NewPortalConfigUseCase,
	),
	fx.Invoke(BootstrapInitialAdmin),
)

func BootstrapInitialAdmin(lc fx.Lifecycle, auth usecase.AuthUseCase, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return auth.BootstrapInitialAdmin(ctx, cfg.Security.InitialAdminUser, cfg.Security.InitialAdminPass)
		},
	})
}
