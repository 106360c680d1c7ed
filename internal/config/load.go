package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "TASKFLOW"

// legacyEnv maps configuration keys to the unprefixed variables older
// deployments set. The prefixed variable wins when both are present.
var legacyEnv = map[string][]string{
	"server.port":            {"PORT"},
	"server.allowed_origins": {"ALLOWED_ORIGINS"},
	"database.url":           {"DATABASE_URL", "MONGODB_URI"},
}

// Load configuration from a .env file, an optional config.yaml and environment
// variables, in increasing order of precedence.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key, envName(key)}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	// A mongodb:// URL selects the mongo driver unless one was chosen explicitly.
	if isMongoURL(v.GetString("database.url")) && !driverChosen(v) {
		v.Set("database.driver", DriverMongo)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 5<<20)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.name", "taskflow")
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("database.connect_backoff", "1s")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "2m")

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// driverChosen reports whether the driver was set by the environment or a
// config file rather than left at its default.
func driverChosen(v *viper.Viper) bool {
	if v.InConfig("database.driver") {
		return true
	}
	_, ok := os.LookupEnv(envName("database.driver"))
	return ok
}

func isMongoURL(url string) bool {
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}
