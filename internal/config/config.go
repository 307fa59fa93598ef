package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the gateway process.
// All values must come from env (or an env-file loaded at startup).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Gateway   GatewayConfig
	Carrier   CarrierConfig
	Auth      AuthConfig
	Dashboard DashboardConfig
	Notify    NotifyConfig
	Redis     RedisConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type GatewayConfig struct {
	// PublicBaseURL is the externally reachable origin webhooks are
	// registered under, e.g. https://gw.example.com. No trailing slash.
	PublicBaseURL string

	// PhoneNumber is the provisioned number in E.164 form.
	PhoneNumber string

	// RedirectNumber, when set, receives inbound calls instead of the
	// browser client. E.164 form.
	RedirectNumber string

	// VoicemailPrompt overrides the default voicemail greeting.
	VoicemailPrompt string

	// ClientIdentity is the registered browser client name.
	ClientIdentity string
}

type CarrierConfig struct {
	AccountSID   string
	AuthToken    string
	APIKeySID    string
	APIKeySecret string
	AppSID       string
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type DashboardConfig struct {
	// PasswordHash is the bcrypt hash of the dashboard password.
	PasswordHash string

	// LoginRateLimit caps password attempts per IP per minute. 0 disables.
	LoginRateLimit int
}

type NotifyConfig struct {
	// URL is the push relay topic URL. Empty disables notifications.
	URL     string
	Timeout time.Duration
}

type RedisConfig struct {
	// Addr is host:port. Empty disables redis-backed features.
	Addr string
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Gateway.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	c.Gateway.PhoneNumber = strings.TrimSpace(os.Getenv("PHONE_NUMBER"))
	c.Gateway.RedirectNumber = strings.TrimSpace(os.Getenv("REDIRECT_NUMBER"))
	c.Gateway.VoicemailPrompt = strings.TrimSpace(os.Getenv("VOICEMAIL_PROMPT"))
	c.Gateway.ClientIdentity = strings.TrimSpace(os.Getenv("CLIENT_IDENTITY"))

	c.Carrier.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Carrier.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Carrier.APIKeySID = strings.TrimSpace(os.Getenv("TWILIO_API_KEY_SID"))
	c.Carrier.APIKeySecret = os.Getenv("TWILIO_API_KEY_SECRET")
	c.Carrier.AppSID = strings.TrimSpace(os.Getenv("TWILIO_APP_SID"))

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Dashboard.PasswordHash = os.Getenv("DASHBOARD_PASSWORD_HASH")
	{
		v := strings.TrimSpace(os.Getenv("LOGIN_RATE_LIMIT"))
		if v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				parseErrs = append(parseErrs, fmt.Errorf("LOGIN_RATE_LIMIT must be an integer, got %q", v))
			}
			c.Dashboard.LoginRateLimit = n
		}
	}

	c.Notify.URL = strings.TrimSpace(os.Getenv("NOTIFY_URL"))
	c.Notify.Timeout = mustDuration("NOTIFY_TIMEOUT")

	c.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Gateway.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required"))
	} else if !strings.HasPrefix(c.Gateway.PublicBaseURL, "http://") && !strings.HasPrefix(c.Gateway.PublicBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an http(s) origin, got %q", c.Gateway.PublicBaseURL))
	}
	if c.Gateway.PhoneNumber == "" {
		errs = append(errs, errors.New("PHONE_NUMBER is required"))
	} else if !isE164(c.Gateway.PhoneNumber) {
		errs = append(errs, fmt.Errorf("PHONE_NUMBER must be E.164, got %q", c.Gateway.PhoneNumber))
	}
	if c.Gateway.RedirectNumber != "" && !isE164(c.Gateway.RedirectNumber) {
		errs = append(errs, fmt.Errorf("REDIRECT_NUMBER must be E.164, got %q", c.Gateway.RedirectNumber))
	}
	if c.Gateway.ClientIdentity == "" {
		errs = append(errs, errors.New("CLIENT_IDENTITY is required"))
	}

	if c.Carrier.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Carrier.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Carrier.APIKeySID == "" || c.Carrier.APIKeySecret == "" {
		errs = append(errs, errors.New("TWILIO_API_KEY_SID and TWILIO_API_KEY_SECRET are required"))
	}
	if c.Carrier.AppSID == "" {
		errs = append(errs, errors.New("TWILIO_APP_SID is required"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		// Default: longer-lived refresh tokens.
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Dashboard.PasswordHash == "" {
		errs = append(errs, errors.New("DASHBOARD_PASSWORD_HASH is required"))
	}
	if c.Dashboard.LoginRateLimit < 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must not be negative"))
	}
	if c.IsProduction() && c.Dashboard.LoginRateLimit > 0 && c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when LOGIN_RATE_LIMIT is set in production"))
	}

	if c.Notify.Timeout < 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must not be negative"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// VerifyWebhookSignatures reports whether carrier webhook signatures are
// enforced. Local runs talk to simulators that cannot sign requests.
func (c Config) VerifyWebhookSignatures() bool {
	return c.App.Env != "local"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

// isE164 accepts +, then 2..15 digits with a nonzero lead.
func isE164(v string) bool {
	if len(v) < 3 || len(v) > 16 || v[0] != '+' {
		return false
	}
	if v[1] == '0' {
		return false
	}
	for _, r := range v[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
