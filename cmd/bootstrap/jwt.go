package bootstrap

import (
	"time"

	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
	),
)

func NewJWTService(cfg config.Config) *jwt.Service {
	ttl := time.Duration(cfg.Security.SessionMaxHours) * time.Hour
	return jwt.NewService(cfg.Security.JWTSecret, ttl)
}
