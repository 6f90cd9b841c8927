// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is shared by the REST server and the CLI.
type Config struct {
	HTTPAddr     string        `env:"ATM_HTTP_ADDR" envDefault:":8080"`
	Store        string        `env:"ATM_STORE" envDefault:"memory"`
	SQLitePath   string        `env:"ATM_SQLITE_PATH" envDefault:"atm.db"`
	DatabaseURL  string        `env:"ATM_DATABASE_URL"`
	DebtStrategy string        `env:"ATM_DEBT_STRATEGY" envDefault:"oldest"`
	SessionKey   string        `env:"ATM_SESSION_KEY"`
	SessionTTL   time.Duration `env:"ATM_SESSION_TTL" envDefault:"1h"`
	Lock         string        `env:"ATM_LOCK" envDefault:"local"`
	RedisAddr    string        `env:"ATM_REDIS_ADDR" envDefault:"localhost:6379"`
	LogLevel     string        `env:"ATM_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"ATM_LOG_FORMAT" envDefault:"json"`
	AccessLog    string        `env:"ATM_ACCESS_LOG" envDefault:"access_log.json"`
	OTelEndpoint string        `env:"ATM_OTEL_ENDPOINT"`
	// CLILogLevel keeps operation logs out of the interactive prompt.
	CLILogLevel string `env:"ATM_CLI_LOG_LEVEL" envDefault:"error"`
}

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	LockLocal = "local"
	LockRedis = "redis"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("ATM_DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.Lock {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock %q", c.Lock)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
