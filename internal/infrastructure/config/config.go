package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server ServerConfig
	OTLP   OTLPConfig
	Log    LogConfig
	Store  StoreConfig
}

type ServerConfig struct {
	Port              string
	Host              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type OTLPConfig struct {
	Endpoint      string
	ServiceName   string
	Environment   string
	ExportEnabled bool
}

type LogConfig struct {
	Level string
}

type StoreConfig struct {
	Backend    string
	Shards     int
	SQLiteName string
}

var defaults = map[string]any{
	"SERVER_HOST":                 "0.0.0.0",
	"SERVER_PORT":                 "8080",
	"SERVER_READ_HEADER_TIMEOUT":  "5s",
	"SERVER_SHUTDOWN_TIMEOUT":     "10s",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"OTEL_SERVICE_NAME":           "products-api",
	"OTEL_ENVIRONMENT":            "development",
	"OTEL_EXPORT_ENABLED":         true,
	"LOG_LEVEL":                   "debug",
	"STORE_BACKEND":               BackendMemory,
	"STORE_SHARDS":                32,
	"STORE_SQLITE_NAME":           "products",
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:              v.GetString("SERVER_HOST"),
			Port:              v.GetString("SERVER_PORT"),
			ReadHeaderTimeout: v.GetDuration("SERVER_READ_HEADER_TIMEOUT"),
			ShutdownTimeout:   v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		OTLP: OTLPConfig{
			Endpoint:      v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:   v.GetString("OTEL_SERVICE_NAME"),
			Environment:   v.GetString("OTEL_ENVIRONMENT"),
			ExportEnabled: v.GetBool("OTEL_EXPORT_ENABLED"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(v.GetString("STORE_BACKEND")),
			Shards:     v.GetInt("STORE_SHARDS"),
			SQLiteName: v.GetString("STORE_SQLITE_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("SERVER_PORT must not be empty")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendMemory:
		if c.Store.Shards < 1 {
			return errors.Errorf("STORE_SHARDS must be at least 1, got %d", c.Store.Shards)
		}
	case BackendSQLite:
		if c.Store.SQLiteName == "" {
			return errors.New("STORE_SQLITE_NAME must not be empty")
		}
	default:
		return errors.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	return nil
}

// SlogLevel parses the configured log level
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, errors.Wrapf(err, "invalid LOG_LEVEL %q", c.Level)
	}
	return level, nil
}
