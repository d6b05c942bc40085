package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the webhook bridge service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// Shared secret expected in the X-Webhook-Secret header. Empty disables
	// the check.
	WebhookSecret string

	// MemoryBackend selects the conversational memory implementation:
	// "api" (hosted memory service), "mock" (in-process), or "auto"
	// (api when a key is configured, mock otherwise).
	MemoryBackend     string
	MemoryAPIBaseURL  string
	MemoryAPIKey      string
	MemoryHTTPTimeout time.Duration

	DatabaseURL string

	// ShopPhoneNumber is spoken to callers when a lookup cannot be answered.
	ShopPhoneNumber string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":3002"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "voicebridge"),
		AllowAnyOrigin:    false,
		WebhookSecret:     trimmedEnv("WEBHOOK_SECRET"),
		MemoryBackend:     envOrDefault("MEMORY_BACKEND", "auto"),
		MemoryAPIBaseURL:  envOrDefault("MEMORY_API_BASE_URL", "https://api.getzep.com/api/v2"),
		MemoryAPIKey:      trimmedEnv("MEMORY_API_KEY"),
		DatabaseURL:       trimmedEnv("DATABASE_URL"),
		ShopPhoneNumber:   envOrDefault("SHOP_PHONE_NUMBER", "406-543-1905"),
		ShutdownTimeout:   15 * time.Second,
		MemoryHTTPTimeout: 30 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryHTTPTimeout, err = durationFromEnv("MEMORY_HTTP_TIMEOUT", cfg.MemoryHTTPTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.MemoryBackend))
	if mode == "" {
		mode = "auto"
	}
	cfg.MemoryBackend = mode
	switch mode {
	case "auto", "mock":
	case "api":
		if cfg.MemoryAPIKey == "" {
			return Config{}, fmt.Errorf("MEMORY_BACKEND=api requires MEMORY_API_KEY")
		}
	default:
		return Config{}, fmt.Errorf("invalid MEMORY_BACKEND: %q (expected auto|api|mock)", cfg.MemoryBackend)
	}

	if cfg.MemoryHTTPTimeout < time.Second {
		return Config{}, fmt.Errorf("MEMORY_HTTP_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
