package app

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/coach/pkg/httpx"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
)

type Config struct {
	Env                  string        `env:"ENV" envDefault:"dev"`                      // dev, test or prod
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`               // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"text"`              // json or text
	Port                 int           `env:"PORT" envDefault:"8080"`                    // HTTP server port
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`    // Graceful shutdown timeout
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`     // Expired refresh record purge interval
	DatabaseFile         string        `env:"COACH_DATABASE_FILE" envDefault:"coach.db"` // Path to SQLite database file
	PepperFile           string        `env:"COACH_PEPPER_FILE" envDefault:"pepper"`     // Path to the password pepper, created on first start
	JWTSecret            string        `env:"JWT_SECRET"`                                // Required in prod; at least 32 bytes
	Issuer               string        `env:"JWT_ISSUER" envDefault:"coach"`             // iss claim
	AccessTTL            time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`         // Access token lifetime
	RefreshTTL           time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`       // Refresh token lifetime
	ReuseGrace           time.Duration `env:"REFRESH_REUSE_GRACE" envDefault:"10s"`      // Window in which a rotated refresh token is still accepted
	RedisURL             string        `env:"REDIS_URL"`                                 // Optional: keeps the refresh ledger in redis
	AIMock               bool          `env:"AI_MOCK" envDefault:"true"`                 // Answer with fixed text instead of calling OpenAI
	OpenAIKey            string        `env:"OPENAI_API_KEY"`                            // Required when AI_MOCK=false
	OpenAIModel          string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`     // Chat completions model
	OpenAIBaseURL        string        `env:"OPENAI_BASE_URL"`                           // Optional: OpenAI compatible endpoint
	OTelEndpoint         string        `env:"OTEL_ENDPOINT"`                             // Optional: OTLP/HTTP traces endpoint
	TrustedProxies       []string      `env:"TRUSTED_PROXIES"`                           // CIDRs or addresses allowed to set X-Forwarded-For
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProd reports whether the service runs in production. Cookies are only
// marked Secure in production.
func (c Config) IsProd() bool { return c.Env == "prod" }

// Validate rejects combinations that cannot run.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("ENV must be dev, test or prod, got %q", c.Env))
	}

	if c.JWTSecret == "" && c.IsProd() {
		errs = append(errs, errors.New("JWT_SECRET is required when ENV=prod"))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}

	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTTL <= c.AccessTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}
	if c.ReuseGrace < 0 {
		errs = append(errs, errors.New("REFRESH_REUSE_GRACE must not be negative"))
	}

	if !c.AIMock && c.OpenAIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required when AI_MOCK=false"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. Empty means forwarding headers
// are ignored and clients are keyed by connection address.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	return httpx.ParsePrefixes(c.TrustedProxies)
}
