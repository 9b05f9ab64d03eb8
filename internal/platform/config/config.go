package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v8"
)

// Config captures everything the server needs from the environment so main
// stays lean. Parsed with caarlos0/env; a .env file is loaded by main in dev.
type Config struct {
	Addr string `env:"SPENDTRAIL_ADDR" envDefault:":8080"`

	// DatabaseURL selects the record store. Empty means in-memory stores,
	// which is the dev-mode default; anything else is a postgres DSN.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisURL selects the token revocation list backend. Empty means the
	// in-process list, which is fine for a single instance.
	RedisURL string `env:"REDIS_URL"`

	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
