package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Extract ExtractConfig `mapstructure:"extract"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Sites   SitesConfig   `mapstructure:"sites"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractConfig bounds how hard the service hits the shops.
type ExtractConfig struct {
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Path string        `mapstructure:"path"` // sqlite file, ":memory:" keeps results for the process lifetime only
	TTL  time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SitesConfig struct {
	// Disabled lists site labels that are registered but not served.
	Disabled []string `mapstructure:"disabled"`
}

// Load reads config.yaml if present, then CLEANURI_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cleanuri/")

	v.SetEnvPrefix("CLEANURI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "9090")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("extract.max_concurrent", 3)
	v.SetDefault("extract.rate_per_second", 1.0)
	v.SetDefault("extract.burst", 1)
	v.SetDefault("extract.timeout", "60s")

	v.SetDefault("cache.path", ":memory:")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("sites.disabled", []string{})
}

func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set CLEANURI_SERVER_PORT)")
	}

	if config.Extract.MaxConcurrent < 1 {
		return fmt.Errorf("extract.max_concurrent must be at least 1, got: %d", config.Extract.MaxConcurrent)
	}

	if config.Extract.RatePerSecond <= 0 {
		return fmt.Errorf("extract.rate_per_second must be positive, got: %g", config.Extract.RatePerSecond)
	}

	if config.Extract.Burst < 1 {
		return fmt.Errorf("extract.burst must be at least 1, got: %d", config.Extract.Burst)
	}

	if config.Extract.Timeout <= 0 {
		return fmt.Errorf("extract.timeout must be positive, got: %s", config.Extract.Timeout)
	}

	if config.Cache.Path == "" {
		return fmt.Errorf("cache.path is required, use \":memory:\" for a process-local cache")
	}

	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

// IsProduction reports whether the server runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// SiteEnabled reports whether label is not listed in sites.disabled.
func (c *Config) SiteEnabled(label string) bool {
	for _, d := range c.Sites.Disabled {
		if strings.EqualFold(d, label) {
			return false
		}
	}
	return true
}
