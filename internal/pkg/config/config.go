package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection,
//   controller credentials), security settings
// - default: Values common across all environments (timeouts, intervals),
//   standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	Controller  ControllerConfig
	Reservation ReservationConfig
	Portal      PortalConfig
	Security    SecurityConfig
	Cleanup     CleanupConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
	TLS  bool   `envconfig:"SERVE_TLS" default:"false"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Correlation-ID"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type ControllerConfig struct {
	BaseURL          string        `envconfig:"CONTROLLER_BASE_URL" required:"true"`
	ControllerID     string        `envconfig:"CONTROLLER_ID" required:"true"`
	SiteID           string        `envconfig:"CONTROLLER_SITE_ID" default:"Default"`
	OperatorUsername string        `envconfig:"CONTROLLER_OPERATOR_USERNAME" required:"true"`
	OperatorPassword string        `envconfig:"CONTROLLER_OPERATOR_PASSWORD" required:"true"`
	AllowSelfSigned  bool          `envconfig:"CONTROLLER_ALLOW_SELF_SIGNED" default:"false"`
	RequestTimeout   time.Duration `envconfig:"CONTROLLER_REQUEST_TIMEOUT" default:"10s"`
}

type ReservationConfig struct {
	BaseURL             string        `envconfig:"RESERVATION_BASE_URL" required:"true"`
	Token               string        `envconfig:"RESERVATION_TOKEN" required:"true"`
	PollIntervalSeconds int           `envconfig:"RESERVATION_POLL_INTERVAL_SECONDS" default:"60"`
	RequestTimeout      time.Duration `envconfig:"RESERVATION_REQUEST_TIMEOUT" default:"30s"`
}

type PortalConfig struct {
	RateLimitAttempts      int      `envconfig:"PORTAL_RATE_LIMIT_ATTEMPTS" default:"5"`
	RateLimitWindowSeconds int      `envconfig:"PORTAL_RATE_LIMIT_WINDOW_SECONDS" default:"60"`
	SuccessRedirectURL     string   `envconfig:"PORTAL_SUCCESS_REDIRECT_URL" default:"/guest/welcome"`
	TrustedProxyCIDRs      []string `envconfig:"PORTAL_TRUSTED_PROXY_CIDRS" default:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,fc00::/7"`
	RedirectHostWhitelist  []string `envconfig:"PORTAL_REDIRECT_HOST_WHITELIST" default:""`
	VoucherLengthDefault   int      `envconfig:"PORTAL_VOUCHER_LENGTH_DEFAULT" default:"10"`
}

type SecurityConfig struct {
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	SessionIdleMinutes int    `envconfig:"SESSION_IDLE_MINUTES" default:"30"`
	SessionMaxHours    int    `envconfig:"SESSION_MAX_HOURS" default:"8"`
	CSRFTokenBytes     int    `envconfig:"CSRF_TOKEN_BYTES" default:"32"`
	InitialAdminUser   string `envconfig:"INITIAL_ADMIN_USER" default:""`
	InitialAdminPass   string `envconfig:"INITIAL_ADMIN_PASS" default:""`
	CookieDomain       string `envconfig:"COOKIE_DOMAIN" default:""`
}

type CleanupConfig struct {
	EventRetentionDays int `envconfig:"CLEANUP_EVENT_RETENTION_DAYS" default:"7"`
	CleanupHourLocal   int `envconfig:"CLEANUP_HOUR_LOCAL" default:"3"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level: "error",
		},
		Controller: ControllerConfig{
			BaseURL:          "https://controller.local:8043",
			ControllerID:     "abc123",
			SiteID:           "Default",
			OperatorUsername: "operator",
			OperatorPassword: "operator",
			RequestTimeout:   time.Second,
		},
		Reservation: ReservationConfig{
			BaseURL:             "http://supervisor/core/api",
			Token:               "test-token",
			PollIntervalSeconds: 60,
			RequestTimeout:      time.Second,
		},
		Portal: PortalConfig{
			RateLimitAttempts:      5,
			RateLimitWindowSeconds: 60,
			SuccessRedirectURL:     "/guest/welcome",
			TrustedProxyCIDRs:      []string{"10.0.0.0/8"},
			VoucherLengthDefault:   10,
		},
		Security: SecurityConfig{
			JWTSecret:          "test-secret",
			SessionIdleMinutes: 30,
			SessionMaxHours:    8,
			CSRFTokenBytes:     32,
		},
		Cleanup: CleanupConfig{
			EventRetentionDays: 7,
			CleanupHourLocal:   3,
		},
	}
}
