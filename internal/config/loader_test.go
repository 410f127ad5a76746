package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Webhook.MaxRetries != 3 {
		t.Errorf("expected webhook max_retries 3, got %d", cfg.Webhook.MaxRetries)
	}
	if cfg.Webhook.BaseDelay != time.Second {
		t.Errorf("expected webhook base_delay 1s, got %v", cfg.Webhook.BaseDelay)
	}
	if cfg.Fallback.Timeout != 55*time.Second {
		t.Errorf("expected fallback timeout 55s, got %v", cfg.Fallback.Timeout)
	}
	if cfg.Queue.Capacity != 256 {
		t.Errorf("expected queue capacity 256, got %d", cfg.Queue.Capacity)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
webhook:
  max_retries: 5
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Webhook.MaxRetries != 5 {
		t.Errorf("expected max_retries 5, got %d", cfg.Webhook.MaxRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.LiteLLM.URL != "http://localhost:4000" {
		t.Errorf("expected default LiteLLM URL, got %s", cfg.LiteLLM.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("RATEFORGE_PORT", "7070")
	t.Setenv("EXCHANGERATE_ACCESS_KEY", "test-key")
	t.Setenv("RATEFORGE_QUEUE_CAPACITY", "8")
	t.Setenv("RATEFORGE_LOG_LEVEL", "warn")
	t.Setenv("RATEFORGE_FALLBACK_TIMEOUT", "1m")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.ExchangeRate.AccessKey != "test-key" {
		t.Errorf("expected test access key, got %s", cfg.ExchangeRate.AccessKey)
	}
	if cfg.Queue.Capacity != 8 {
		t.Errorf("expected queue capacity 8, got %d", cfg.Queue.Capacity)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Fallback.Timeout != time.Minute {
		t.Errorf("expected fallback timeout 1m, got %v", cfg.Fallback.Timeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty litellm url", func(c *Config) { c.LiteLLM.URL = "" }},
		{"empty exchange rate url", func(c *Config) { c.ExchangeRate.URL = "" }},
		{"negative retries", func(c *Config) { c.Webhook.MaxRetries = -1 }},
		{"zero base delay", func(c *Config) { c.Webhook.BaseDelay = 0 }},
		{"max below base delay", func(c *Config) { c.Webhook.MaxDelay = c.Webhook.BaseDelay / 2 }},
		{"zero queue capacity", func(c *Config) { c.Queue.Capacity = 0 }},
		{"zero fallback timeout", func(c *Config) { c.Fallback.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := validate(&cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}
