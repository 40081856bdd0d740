package components

import (
	"log/slog"

	"guestgate/internal/handler"
	"guestgate/internal/handler/api"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/clock"
	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/netutil"
	"guestgate/internal/pkg/redirect"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		NewTrustedProxies,
		NewRedirectValidator,
		NewRateLimiter,
		middleware.NewAuthMiddleware,
		api.NewGuestHandler,
		api.NewDetectHandler,
		api.NewAdminAuthHandler,
		api.NewGrantHandler,
		api.NewVoucherHandler,
		api.NewIntegrationHandler,
		api.NewPortalConfigHandler,
		api.NewAccountHandler,
		api.NewAuditHandler,
		api.NewHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)

func NewTrustedProxies(cfg config.Config) (*netutil.TrustedProxies, error) {
	return netutil.NewTrustedProxies(cfg.Portal.TrustedProxyCIDRs)
}

func NewRedirectValidator(cfg config.Config) *redirect.Validator {
	return redirect.NewValidator(cfg.Portal.RedirectHostWhitelist)
}

// NewRateLimiter seeds the limiter from env config; the persisted portal
// config takes effect on restart.
func NewRateLimiter(cfg config.Config, clk clock.Clock) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.Portal.RateLimitAttempts, cfg.Portal.RateLimitWindowSeconds, clk)
}

func RegisterRoutes(
	engine *gin.Engine,
	cfg config.Config,
	guest *api.GuestHandler,
	detect *api.DetectHandler,
	adminAuth *api.AdminAuthHandler,
	grants *api.GrantHandler,
	vouchers *api.VoucherHandler,
	integrations *api.IntegrationHandler,
	portalConfig *api.PortalConfigHandler,
	accounts *api.AccountHandler,
	auditHandler *api.AuditHandler,
	health *api.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	trustedProxies *netutil.TrustedProxies,
	audit usecase.AuditUseCase,
	logger *slog.Logger,
) {
	handler.NewRouter(engine, cfg, handler.Handlers{
		Guest:        guest,
		Detect:       detect,
		AdminAuth:    adminAuth,
		Grants:       grants,
		Vouchers:     vouchers,
		Integrations: integrations,
		PortalConfig: portalConfig,
		Accounts:     accounts,
		Audit:        auditHandler,
		Health:       health,
	}, authMiddleware, rateLimiter, trustedProxies, audit, logger)
}
