package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	SeedOnStart bool   `env:"SEED_ON_START, default=true"`
	SeedActor   string `env:"SEED_ACTOR,    default=system"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Mail     MailConfig
	Render   RenderConfig
	Dispatch DispatchConfig
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,            default=recruitly_templates"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE, default=0"`
}

type RedisConfig struct {
	// Addr is host:port or a redis:// URL.
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=0"`
}

type CacheConfig struct {
	// Driver is one of redis, memory or none.
	Driver         string        `env:"CACHE_DRIVER,    default=memory"`
	TTL            time.Duration `env:"CACHE_TTL,       default=5m"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type MailConfig struct {
	// Driver is one of smtp, sendgrid or log.
	Driver         string `env:"MAIL_DRIVER,      default=log"`
	From           string `env:"MAIL_FROM,        default=no-reply@recruitly.local"`
	FromName       string `env:"MAIL_FROM_NAME,   default=Recruitly"`
	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT,        default=587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPass       string `env:"SMTP_PASS"`
	SMTPTLSMode    string `env:"SMTP_TLS_MODE,    default=auto"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
}

type RenderConfig struct {
	EscapeHTML bool `env:"RENDER_ESCAPE_HTML, default=false"`
}

type DispatchConfig struct {
	Workers       int     `env:"DISPATCH_WORKERS,      default=8"`
	SendRateLimit float64 `env:"SEND_RATE_LIMIT_RPS,   default=20"`
	SendRateBurst int     `env:"SEND_RATE_LIMIT_BURST, default=40"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.Cache.Driver {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("config: CACHE_DRIVER must be redis, memory or none, got %q", c.Cache.Driver)
	}
	switch c.Mail.SMTPTLSMode {
	case "auto", "starttls", "ssl", "none":
	default:
		return fmt.Errorf("config: SMTP_TLS_MODE must be auto, starttls, ssl or none, got %q", c.Mail.SMTPTLSMode)
	}
	return nil
}
