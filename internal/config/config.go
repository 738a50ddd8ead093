package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	minJWTSecretLen = 32
)

// Config is read from the environment, with an optional .env file for local runs.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"kanso-habits"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RateLimit  int           `env:"RATE_LIMIT" envDefault:"100"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`

	CatalogPath string `env:"CATALOG_PATH"`
	Timezone    string `env:"TIMEZONE" envDefault:"UTC"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ConnectRetries int `env:"CONNECT_RETRIES" envDefault:"5"`
}

// Load parses the environment into a Config. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DBUser == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_USER and DB_NAME are required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_DRIVER: %q (must be %s or %s)", c.StorageDriver, StoragePostgres, StorageMemory))
	}

	if len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid TOKEN_TTL: %s", c.TokenTTL))
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("invalid rate limit: %d per %s", c.RateLimit, c.RateWindow))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT: %q (must be text or json)", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Location returns the time zone used to decide what "today" is.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}
