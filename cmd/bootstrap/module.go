package bootstrap

import (
	"guestgate/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	JWTModule,
	ControllerModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.WorkerModule,
	components.HandlerModule,
)
