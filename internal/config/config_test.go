package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":3002" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":3002")
	}
	if cfg.MemoryBackend != "auto" {
		t.Fatalf("MemoryBackend = %q, want %q", cfg.MemoryBackend, "auto")
	}
	if cfg.MetricsNamespace != "voicebridge" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "voicebridge")
	}
	if cfg.ShopPhoneNumber != "406-543-1905" {
		t.Fatalf("ShopPhoneNumber = %q, want default", cfg.ShopPhoneNumber)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
}

func TestLoadAPIBackendRequiresKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_BACKEND", "api")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want missing key failure")
	}

	t.Setenv("MEMORY_API_KEY", "z_test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MemoryBackend != "api" {
		t.Fatalf("MemoryBackend = %q, want %q", cfg.MemoryBackend, "api")
	}
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_BACKEND", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want invalid backend failure")
	}
}

func TestLoadParsesDurations(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MEMORY_HTTP_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.MemoryHTTPTimeout != 5*time.Second {
		t.Fatalf("MemoryHTTPTimeout = %v, want 5s", cfg.MemoryHTTPTimeout)
	}
}

func TestLoadRejectsTinyMemoryTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MEMORY_HTTP_TIMEOUT", "100ms")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want timeout validation failure")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"WEBHOOK_SECRET",
		"MEMORY_BACKEND",
		"MEMORY_API_BASE_URL",
		"MEMORY_API_KEY",
		"MEMORY_HTTP_TIMEOUT",
		"DATABASE_URL",
		"SHOP_PHONE_NUMBER",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
