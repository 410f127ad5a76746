// Package config provides hierarchical configuration loading for RateForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the RateForge service.
type Config struct {
	Server       Server       `yaml:"server"`
	LiteLLM      LiteLLM      `yaml:"litellm"`
	ExchangeRate ExchangeRate `yaml:"exchange_rate"`
	Webhook      Webhook      `yaml:"webhook"`
	Queue        Queue        `yaml:"queue"`
	Fallback     Fallback     `yaml:"fallback"`
	Logging      Logging      `yaml:"logging"`
	Breaker      Breaker      `yaml:"breaker"`
	Rate         Rate         `yaml:"rate"`
	Cache        Cache        `yaml:"cache"`
	MCP          MCP          `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	BaseURL    string `yaml:"base_url"`
	CORSOrigin string `yaml:"cors_origin"`
}

// LiteLLM holds LiteLLM proxy configuration for agent inference.
type LiteLLM struct {
	URL           string `yaml:"url"`
	MasterKey     string `yaml:"master_key"`
	Model         string `yaml:"model"`
	MaxToolRounds int    `yaml:"max_tool_rounds"`
}

// ExchangeRate holds the forex data API configuration.
type ExchangeRate struct {
	URL       string        `yaml:"url"`
	AccessKey string        `yaml:"access_key"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// Webhook holds outbound webhook delivery configuration.
type Webhook struct {
	MaxRetries     int           `yaml:"max_retries"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	PendingTimeout time.Duration `yaml:"pending_timeout"`
}

// Queue holds task queue configuration.
type Queue struct {
	Capacity int `yaml:"capacity"`
}

// Fallback holds blocking-request timeout configuration.
type Fallback struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for outbound API calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Cache holds in-process cache configuration.
type Cache struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// MCP holds Model Context Protocol server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	APIKey  string `yaml:"api_key"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			BaseURL:    "http://localhost:8080",
			CORSOrigin: "http://localhost:3000",
		},
		LiteLLM: LiteLLM{
			URL:           "http://localhost:4000",
			Model:         "openai/gpt-4o-mini",
			MaxToolRounds: 5,
		},
		ExchangeRate: ExchangeRate{
			URL:      "https://api.exchangerate.host",
			CacheTTL: 30 * time.Second,
		},
		Webhook: Webhook{
			MaxRetries:     3,
			BaseDelay:      time.Second,
			MaxDelay:       10 * time.Second,
			PendingTimeout: 60 * time.Second,
		},
		Queue: Queue{
			Capacity: 256,
		},
		Fallback: Fallback{
			Timeout: 55 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "rateforge",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
		},
		Cache: Cache{
			MaxSizeMB: 32,
		},
		MCP: MCP{
			Enabled: false,
			Addr:    ":8090",
		},
	}
}
