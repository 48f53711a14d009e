package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Concurrency != 100 {
		t.Errorf("Concurrency = %d, want 100", cfg.Concurrency)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.BackoffBaseMS != 500 {
		t.Errorf("BackoffBaseMS = %d, want 500", cfg.BackoffBaseMS)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.AuthTokenField != "access_token" {
		t.Errorf("AuthTokenField = %q, want access_token", cfg.AuthTokenField)
	}
	if cfg.AuthURL != "" || cfg.RedisAddr != "" || cfg.MetricsAddr != "" {
		t.Error("optional endpoints should default to empty")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CONCURRENCY", "25")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_URL", "http://auth.local/login")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Concurrency != 25 {
		t.Errorf("Concurrency = %d, want 25", cfg.Concurrency)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.AuthURL != "http://auth.local/login" {
		t.Errorf("AuthURL = %q", cfg.AuthURL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}
