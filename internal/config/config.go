// Package config loads server settings from SETTLEUP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, as in SETTLEUP_PORT.
const EnvPrefix = "SETTLEUP"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port        int           `envconfig:"PORT" default:"8080"`
	DBDriver    string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath      string        `envconfig:"DB_PATH" default:"./data/settleup.db"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"168h"`

	GuestTTL           time.Duration `envconfig:"GUEST_TTL" default:"24h"`
	GuestSweepSchedule string        `envconfig:"GUEST_SWEEP_SCHEDULE" default:"@every 10m"`
	GuestMaxSessions   int           `envconfig:"GUEST_MAX_SESSIONS" default:"10000"`

	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	StaticPath      string        `envconfig:"STATIC_PATH" default:"./static"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings envconfig cannot express with tags.
func (c *Config) Validate() error {
	var errs []error

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.GuestMaxSessions < 0 {
		errs = append(errs, fmt.Errorf("GUEST_MAX_SESSIONS must not be negative, got %d", c.GuestMaxSessions))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	for name, d := range map[string]time.Duration{
		"JWT_TTL":          c.JWTTTL,
		"GUEST_TTL":        c.GuestTTL,
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
