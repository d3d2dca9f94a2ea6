// Package config provides configuration management for TasteBook.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, SERVER_PORT)
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Images    ImagesConfig    `mapstructure:"images"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	River     RiverConfig     `mapstructure:"river"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the store backend. SQLite is the
// embedded default; PostgreSQL is for deployments that also want the River
// maintenance queue.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`

	// SQLite
	Path string `mapstructure:"path"`

	// PostgreSQL
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// GeneratorConfig configures the story content model client.
type GeneratorConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImagesConfig configures the illustration provider client. An empty
// api_key disables enrichment without failing startup.
type ImagesConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	Size         string        `mapstructure:"size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize   int `mapstructure:"general_pool_size"`
	SynthesisPoolSize int `mapstructure:"synthesis_pool_size"`
}

// RiverConfig contains River Queue settings (PostgreSQL deployments only).
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// TelemetryConfig contains telemetry retention settings.
type TelemetryConfig struct {
	RetentionPeriod time.Duration `mapstructure:"retention_period"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Load reads configuration from file and environment variables.
// Standard environment variables without prefix: DATABASE_URL, SERVER_PORT,
// LOG_LEVEL; nested keys map dot to underscore (worker.general_pool_size →
// WORKER_GENERAL_POOL_SIZE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tastebook")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider key aliases matching the names the providers document.
	v.BindEnv("generator.api_key", "GEMINI_API_KEY", "GENERATOR_API_KEY")   //nolint:errcheck
	v.BindEnv("images.api_key", "DASHSCOPE_API_KEY", "IMAGES_API_KEY")      //nolint:errcheck

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path must not be empty for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN() == "" {
			return fmt.Errorf("database connection settings are required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database
	// Every key needs a default (even an empty one): AutomaticEnv only
	// surfaces env vars for keys viper already knows about.
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/tastebook.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tastebook")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "tastebook")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Generator
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.timeout", "120s")

	// Images
	v.SetDefault("images.base_url", "")
	v.SetDefault("images.model", "")
	v.SetDefault("images.size", "")
	v.SetDefault("images.poll_interval", "2s")
	v.SetDefault("images.timeout", "2m")

	// Worker pools
	v.SetDefault("worker.general_pool_size", 64)
	v.SetDefault("worker.synthesis_pool_size", 4)

	// River (postgres only)
	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Telemetry retention
	v.SetDefault("telemetry.retention_period", "2160h") // 90 days
	v.SetDefault("telemetry.cleanup_interval", "24h")
}
