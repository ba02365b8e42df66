// Package config loads and validates the application's TOML configuration
// file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// AiConfig configures the LLM backend used for list-normalization and other
// agent escalations.
type AiConfig struct {
	Backend        string `toml:"backend"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds uint64 `toml:"timeout_seconds"`
	MaxRetries     uint32 `toml:"max_retries"`
}

func defaultAiConfig() AiConfig {
	return AiConfig{
		Backend:        "ollama",
		BaseURL:        "http://localhost:11434",
		Model:          "llama3.2",
		TimeoutSeconds: 120,
		MaxRetries:     3,
	}
}

// SourceConfig configures the BCP source platform client.
type SourceConfig struct {
	Enabled     bool   `toml:"enabled"`
	BaseURL     string `toml:"base_url"`
	RateLimitMs uint64 `toml:"rate_limit_ms"`
}

func defaultSourceConfig() SourceConfig {
	return SourceConfig{
		Enabled:     true,
		BaseURL:     "https://newprod-api.bestcoastpairings.com/v1",
		RateLimitMs: 2000,
	}
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host       string `toml:"host"`
	Port       uint16 `toml:"port"`
	CorsOrigin string `toml:"cors_origin"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       8080,
		CorsOrigin: "*",
	}
}

// StorageConfig configures the optional secondary-index and cache backends.
// Both are config-gated: an empty PostgresDSN disables the Postgres index
// entirely, and an empty RedisAddr disables response caching.
type StorageConfig struct {
	PostgresDSN string `toml:"postgres_dsn"`
	RedisAddr   string `toml:"redis_addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	DataDir  string        `toml:"data_dir"`
	LogLevel string        `toml:"log_level"`
	Ai       AiConfig      `toml:"ai"`
	Server   ServerConfig  `toml:"server"`
	Source   SourceConfig  `toml:"source"`
	Storage  StorageConfig `toml:"storage"`
}

// Default returns an AppConfig populated with the same defaults as an empty
// TOML document.
func Default() AppConfig {
	return AppConfig{
		DataDir:  "./data",
		LogLevel: "info",
		Ai:       defaultAiConfig(),
		Server:   defaultServerConfig(),
		Source:   defaultSourceConfig(),
		Storage:  StorageConfig{},
	}
}

// FromFile loads configuration from a TOML file, applying defaults for any
// field the file omits.
func FromFile(path string) (AppConfig, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		return AppConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would leave the process unable to
// start or to ever succeed at an AI call.
func (c AppConfig) Validate() error {
	if c.Ai.TimeoutSeconds == 0 {
		return fmt.Errorf("config: ai.timeout_seconds must be greater than 0")
	}
	if c.Server.Port == 0 {
		return fmt.Errorf("config: server.port must be greater than 0")
	}
	return nil
}
