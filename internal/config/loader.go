package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "rateforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "RATEFORGE_PORT")
	setString(&cfg.Server.BaseURL, "RATEFORGE_BASE_URL")
	setString(&cfg.Server.CORSOrigin, "RATEFORGE_CORS_ORIGIN")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.Model, "RATEFORGE_MODEL")
	setInt(&cfg.LiteLLM.MaxToolRounds, "RATEFORGE_MAX_TOOL_ROUNDS")
	setString(&cfg.ExchangeRate.URL, "EXCHANGERATE_URL")
	setString(&cfg.ExchangeRate.AccessKey, "EXCHANGERATE_ACCESS_KEY")
	setDuration(&cfg.ExchangeRate.CacheTTL, "RATEFORGE_RATE_CACHE_TTL")
	setInt(&cfg.Webhook.MaxRetries, "RATEFORGE_WEBHOOK_MAX_RETRIES")
	setDuration(&cfg.Webhook.BaseDelay, "RATEFORGE_WEBHOOK_BASE_DELAY")
	setDuration(&cfg.Webhook.MaxDelay, "RATEFORGE_WEBHOOK_MAX_DELAY")
	setDuration(&cfg.Webhook.PendingTimeout, "RATEFORGE_WEBHOOK_PENDING_TIMEOUT")
	setInt(&cfg.Queue.Capacity, "RATEFORGE_QUEUE_CAPACITY")
	setDuration(&cfg.Fallback.Timeout, "RATEFORGE_FALLBACK_TIMEOUT")
	setString(&cfg.Logging.Level, "RATEFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RATEFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RATEFORGE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "RATEFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RATEFORGE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "RATEFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "RATEFORGE_RATE_BURST")
	setInt64(&cfg.Cache.MaxSizeMB, "RATEFORGE_CACHE_SIZE_MB")
	setBool(&cfg.MCP.Enabled, "RATEFORGE_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "RATEFORGE_MCP_ADDR")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.LiteLLM.URL == "" {
		return errors.New("litellm.url is required")
	}
	if cfg.ExchangeRate.URL == "" {
		return errors.New("exchange_rate.url is required")
	}
	if cfg.Webhook.MaxRetries < 0 {
		return errors.New("webhook.max_retries must be >= 0")
	}
	if cfg.Webhook.BaseDelay <= 0 || cfg.Webhook.MaxDelay < cfg.Webhook.BaseDelay {
		return errors.New("webhook delays must satisfy 0 < base_delay <= max_delay")
	}
	if cfg.Queue.Capacity < 1 {
		return errors.New("queue.capacity must be >= 1")
	}
	if cfg.Fallback.Timeout <= 0 {
		return errors.New("fallback.timeout must be > 0")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
