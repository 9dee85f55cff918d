package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emre/registrar/internal/pkg/helpers"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		// Driver selects the record store: "postgres" or "memory"
		// (memory is for demos and tests only, nothing survives a restart).
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	RateLimit struct {
		// Strategy selects the throttle store: "window" (in-memory
		// sliding window), "bucket" (token bucket) or "redis"
		// (fixed-window counters shared between instances).
		Strategy      string `yaml:"strategy" env:"RATE_LIMIT_STRATEGY"`
		MaxRequests   int    `yaml:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS"`
		Window        string `yaml:"window" env:"RATE_LIMIT_WINDOW"`
		RedisAddr     string `yaml:"redis_addr" env:"RATE_LIMIT_REDIS_ADDR"`
		RedisPassword string `yaml:"redis_password" env:"RATE_LIMIT_REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db" env:"RATE_LIMIT_REDIS_DB"`
	} `yaml:"rate_limit"`

	CORS struct {
		// AllowedOrigins is the fixed allow-list of client origins.
		// Requests without an Origin header are always permitted.
		AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	} `yaml:"cors"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// Config file is optional; env vars alone can configure the service
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "registrar"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// Rate limit defaults: 100 requests per client per 15 minutes
	config.RateLimit.Strategy = "window"
	config.RateLimit.MaxRequests = 100
	config.RateLimit.Window = "15m"

	// CORS defaults: the registrar front end
	config.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	switch config.RateLimit.Strategy {
	case "window", "bucket", "redis":
	default:
		return fmt.Errorf("unknown rate limit strategy %q", config.RateLimit.Strategy)
	}

	if config.RateLimit.Strategy == "redis" && config.RateLimit.RedisAddr == "" {
		return fmt.Errorf("rate limit strategy redis requires redis_addr")
	}

	if config.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max_requests must be positive")
	}

	if _, err := time.ParseDuration(config.RateLimit.Window); err != nil {
		return fmt.Errorf("invalid rate limit window format: %w", err)
	}

	if config.Database.Driver == "postgres" {
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid connection max lifetime format: %w", err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetRateLimitWindow returns the throttle window as a duration. The
// format is validated at load time.
func (c *Config) GetRateLimitWindow() time.Duration {
	return helpers.ParseDuration(c.RateLimit.Window, 15*time.Minute)
}
