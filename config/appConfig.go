package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	authconfig "supplymarket_api/internal/auth/config"
	"supplymarket_api/internal/pricing"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimit is requests per second across the API; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
	// Seed loads the demo marketplace into an empty store on startup.
	Seed bool `yaml:"seed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AppConfig struct {
	Server   ServerConfig         `yaml:"server"`
	Pricing  pricing.Config       `yaml:"pricing"`
	Storage  StorageConfig        `yaml:"storage"`
	Postgres PostgresConfig       `yaml:"postgres"`
	Auth     authconfig.JwtConfig `yaml:"auth"`
	Log      LogConfig            `yaml:"log"`
}

func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       50,
			RateBurst:       100,
		},
		Pricing: pricing.DefaultConfig(),
		Storage: StorageConfig{Driver: StorageMemory, Schema: "marketplace", Table: "kv"},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "postgres",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads filename over the defaults, applies env overrides and validates the result.
func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := Default()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	applyEnv(config)
	config.Auth.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	case c.Server.RateLimit < 0:
		return fmt.Errorf("%w: server.rate_limit cannot be negative", ErrInvalidConfig)
	case c.Storage.Driver != StorageMemory && c.Storage.Driver != StoragePostgres:
		return fmt.Errorf("%w: storage.driver must be %q or %q", ErrInvalidConfig, StorageMemory, StoragePostgres)
	case c.Auth.JWTSecret == "":
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrInvalidConfig)
	case c.Pricing.BaseRate < 0 || c.Pricing.RatePerKm < 0:
		return fmt.Errorf("%w: pricing rates cannot be negative", ErrInvalidConfig)
	case c.Pricing.VAT() < 0 || c.Pricing.VAT() >= 1:
		return fmt.Errorf("%w: pricing.vat_rate must be in [0, 1)", ErrInvalidConfig)
	}
	return nil
}
