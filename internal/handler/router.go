package handler

import (
	"log/slog"
	"net/http"

	"guestgate/internal/handler/api"
	"guestgate/internal/handler/middleware"
	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/netutil"
	"guestgate/internal/pkg/rbac"
	"guestgate/internal/usecase"

	"github.com/gin-gonic/gin"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Guest        *api.GuestHandler
	Detect       *api.DetectHandler
	AdminAuth    *api.AdminAuthHandler
	Grants       *api.GrantHandler
	Vouchers     *api.VoucherHandler
	Integrations *api.IntegrationHandler
	PortalConfig *api.PortalConfigHandler
	Accounts     *api.AccountHandler
	Audit        *api.AuditHandler
	Health       *api.HealthHandler
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	trustedProxies *netutil.TrustedProxies,
	audit usecase.AuditUseCase,
	logger *slog.Logger,
) {
	setupMiddleware(engine, cfg, trustedProxies, logger)
	setupRoutes(engine, handlers, authMiddleware, rateLimiter, audit)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, trustedProxies *netutil.TrustedProxies, logger *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery(logger))
	engine.Use(middleware.ClientIP(trustedProxies))
	engine.Use(middleware.CorrelationID())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger))
}

func setupRoutes(
	engine *gin.Engine,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	audit usecase.AuditUseCase,
) {
	engine.GET("/health", h.Health.Check)

	// OS connectivity probes land on the portal form.
	for _, path := range api.DetectionPaths {
		engine.GET(path, h.Detect.Redirect)
	}

	guest := engine.Group("/guest")
	guest.Use(middleware.SecurityHeaders())
	{
		addRoutes(guest, []route{
			{Method: http.MethodGet, Path: "/authorize", Handler: h.Guest.ShowForm},
			{Method: http.MethodPost, Path: "/authorize", Handler: h.Guest.Authorize,
				Mw: []gin.HandlerFunc{middleware.RateLimit(rateLimiter), middleware.GuestCSRF()}},
			{Method: http.MethodGet, Path: "/welcome", Handler: h.Guest.Welcome},
		})
	}

	adminGroup := engine.Group("/admin")
	{
		adminGroup.POST("/login", h.AdminAuth.Login)

		authed := adminGroup.Group("")
		authed.Use(authMiddleware.RequireAuth())
		authed.Use(middleware.AdminCSRF())
		{
			authed.POST("/logout", h.AdminAuth.Logout)

			addRoutes(authed, []route{
				{Method: http.MethodGet, Path: "/portal-config", Handler: h.PortalConfig.Get,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionPortalConfigRead, audit)}},
				{Method: http.MethodPut, Path: "/portal-config", Handler: h.PortalConfig.Update,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionPortalConfigUpdate, audit)}},

				{Method: http.MethodGet, Path: "/integrations", Handler: h.Integrations.List,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionIntegrationsList, audit)}},
				{Method: http.MethodPost, Path: "/integrations", Handler: h.Integrations.Create,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionIntegrationsCreate, audit)}},
				{Method: http.MethodPut, Path: "/integrations/:id", Handler: h.Integrations.Update,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionIntegrationsUpdate, audit)}},
				{Method: http.MethodDelete, Path: "/integrations/:id", Handler: h.Integrations.Delete,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionIntegrationsDelete, audit)}},

				{Method: http.MethodGet, Path: "/grants", Handler: h.Grants.List,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionGrantsList, audit)}},
				{Method: http.MethodPost, Path: "/grants/:id/extend", Handler: h.Grants.Extend,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionGrantsExtend, audit)}},
				{Method: http.MethodPost, Path: "/grants/:id/revoke", Handler: h.Grants.Revoke,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionGrantsRevoke, audit)}},

				{Method: http.MethodPost, Path: "/vouchers", Handler: h.Vouchers.Create,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionVouchersCreate, audit)}},
				{Method: http.MethodGet, Path: "/vouchers", Handler: h.Vouchers.List,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionVouchersList, audit)}},

				{Method: http.MethodPost, Path: "/accounts", Handler: h.Accounts.Create,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionAccountsCreate, audit)}},
				{Method: http.MethodGet, Path: "/accounts", Handler: h.Accounts.List,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionAccountsList, audit)}},

				{Method: http.MethodGet, Path: "/audit", Handler: h.Audit.List,
					Mw: []gin.HandlerFunc{middleware.RequireAction(rbac.ActionAuditList, audit)}},
			})
		}
	}
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
