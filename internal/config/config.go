package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig contains HTTP server and process settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" validate:"required,min=1,dive,required"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Supported values of DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects and tunes the task store backend.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres mongo sqlite"`
	URL             string        `mapstructure:"url" validate:"required"`
	Name            string        `mapstructure:"name" validate:"required_if=Driver mongo"`
	ConnectAttempts uint64        `mapstructure:"connect_attempts" validate:"gte=1"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff" validate:"gt=0"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"gte=0"`
}

// CacheConfig configures the optional Redis task cache. An empty RedisURL
// disables caching.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url" validate:"omitempty,url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}
