package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Service holds the connection settings of the experiment data service.
type Service struct {
	URL      string        `envconfig:"TMAPS_SERVICE_URL" default:"http://localhost:5002"`
	Token    string        `envconfig:"TMAPS_SERVICE_TOKEN"`
	Timeout  time.Duration `envconfig:"TMAPS_SERVICE_TIMEOUT" default:"30s"`
	Coalesce bool          `envconfig:"TMAPS_COALESCE_REQUESTS" default:"false"`
	// LegacyErrors restores the historical delete and workflow failure handling.
	LegacyErrors bool `envconfig:"TMAPS_LEGACY_ERRORS" default:"false"`
}

// Database holds the local snapshot catalog configuration. An empty URL
// selects a file inside the XDG data directory.
type Database struct {
	URL       string `envconfig:"TMAPS_DATABASE_URL"`
	AuthToken string `envconfig:"TMAPS_DATABASE_AUTH_TOKEN"`
}

// Telemetry holds OTLP metric export settings.
type Telemetry struct {
	Enabled  bool   `envconfig:"TMAPS_OTEL_ENABLED" default:"false"`
	Endpoint string `envconfig:"TMAPS_OTEL_ENDPOINT" default:"localhost:4317"`
	Insecure bool   `envconfig:"TMAPS_OTEL_INSECURE" default:"true"`
}

type Config struct {
	Service   Service
	Database  Database
	Telemetry Telemetry
	Debug     bool
}

type debug struct {
	Debug bool `envconfig:"TMAPS_DEBUG" default:"false"`
}

// Load reads the configuration from environment variables. Each section is
// processed on its own so envconfig does not prefix the nested keys.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg.Service); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Telemetry); err != nil {
		return nil, err
	}
	var d debug
	if err := envconfig.Process("", &d); err != nil {
		return nil, err
	}
	cfg.Debug = d.Debug
	return &cfg, nil
}
