package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const devJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Port      string        `env:"PORT,       default=5000"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET, default=dev-secret-change-in-production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=168h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	ClientURL string        `env:"CLIENT_URL, default=http://localhost:5173"`

	// TrustedProxies is a comma-separated list of CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI          string `env:"MONGO_URI,          default=mongodb://localhost:27017"`
	Database     string `env:"MONGO_DB,           default=inventory"`
	Transactions bool   `env:"MONGO_TRANSACTIONS, default=false"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type RateLimitConfig struct {
	LoginLimit  int           `env:"LOGIN_RATE_LIMIT,  default=20"`
	LoginWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=15m"`
}

// IsDevelopment reports whether ENV is "development".
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesDevSecret reports whether JWT_SECRET was left at its development default.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// Load reads a .env file when present, then configuration from environment
// variables using go-envconfig.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process resolves the configuration from an arbitrary lookuper.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.RateLimit.LoginLimit <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be positive, got %d", cfg.RateLimit.LoginLimit)
	}
	return &cfg, nil
}
