// Package config loads CLI configuration from the environment.
package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the fetchctl binary.
type Config struct {
	Concurrency   int    `mapstructure:"CONCURRENCY"`
	MaxRetries    int    `mapstructure:"MAX_RETRIES"`
	BackoffBaseMS int    `mapstructure:"BACKOFF_BASE_MS"`
	UserAgent     string `mapstructure:"USER_AGENT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	MetricsAddr string `mapstructure:"METRICS_ADDR"`

	AuthURL        string `mapstructure:"AUTH_URL"`
	AuthUsername   string `mapstructure:"AUTH_USERNAME"`
	AuthPassword   string `mapstructure:"AUTH_PASSWORD"`
	AuthTokenField string `mapstructure:"AUTH_TOKEN_FIELD"`

	// RedisAddr enables the shared token store when set.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
}

// Load reads configuration from a .env file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// The .env file is optional; environment variables alone are fine in
	// production.
	_ = viper.ReadInConfig()

	viper.SetDefault("CONCURRENCY", 100)
	viper.SetDefault("MAX_RETRIES", 2)
	viper.SetDefault("BACKOFF_BASE_MS", 500)
	viper.SetDefault("USER_AGENT", "fetchctl/0.1.0")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)
	viper.SetDefault("METRICS_ADDR", "")
	viper.SetDefault("AUTH_URL", "")
	viper.SetDefault("AUTH_USERNAME", "")
	viper.SetDefault("AUTH_PASSWORD", "")
	viper.SetDefault("AUTH_TOKEN_FIELD", "access_token")
	viper.SetDefault("REDIS_ADDR", "")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
