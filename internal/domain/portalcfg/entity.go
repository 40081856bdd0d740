package portalcfg

import "errors"

var (
	ErrInvalidRateLimitAttempts = errors.New("rate_limit_attempts must be 1-100")
	ErrInvalidRateLimitWindow   = errors.New("rate_limit_window_seconds must be 10-3600")
	ErrInvalidVoucherLength     = errors.New("voucher_length_default must be 4-24")
	ErrInvalidRedirectURL       = errors.New("success_redirect_url is required")
)

const (
	DefaultRateLimitAttempts      = 5
	DefaultRateLimitWindowSeconds = 60
	DefaultSuccessRedirectURL     = "/guest/welcome"
	DefaultVoucherLength          = 10
)

// Config is the singleton guest-portal configuration row.
type Config struct {
	rateLimitAttempts      int
	rateLimitWindowSeconds int
	successRedirectURL     string
	voucherLengthDefault   int
}

func NewConfig(attempts, windowSeconds int, redirectURL string, voucherLength int) (*Config, error) {
	if attempts < 1 || attempts > 100 {
		return nil, ErrInvalidRateLimitAttempts
	}
	if windowSeconds < 10 || windowSeconds > 3600 {
		return nil, ErrInvalidRateLimitWindow
	}
	if voucherLength < 4 || voucherLength > 24 {
		return nil, ErrInvalidVoucherLength
	}
	if redirectURL == "" {
		return nil, ErrInvalidRedirectURL
	}
	return &Config{
		rateLimitAttempts:      attempts,
		rateLimitWindowSeconds: windowSeconds,
		successRedirectURL:     redirectURL,
		voucherLengthDefault:   voucherLength,
	}, nil
}

func Default() *Config {
	return &Config{
		rateLimitAttempts:      DefaultRateLimitAttempts,
		rateLimitWindowSeconds: DefaultRateLimitWindowSeconds,
		successRedirectURL:     DefaultSuccessRedirectURL,
		voucherLengthDefault:   DefaultVoucherLength,
	}
}

func (c *Config) RateLimitAttempts() int      { return c.rateLimitAttempts }
func (c *Config) RateLimitWindowSeconds() int { return c.rateLimitWindowSeconds }
func (c *Config) SuccessRedirectURL() string  { return c.successRedirectURL }
func (c *Config) VoucherLengthDefault() int   { return c.voucherLengthDefault }
