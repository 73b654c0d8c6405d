// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	apiKey := cfg.Anthropic.APIKey
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Anthropic     AnthropicConfig     `yaml:"anthropic"`
	Matching      MatchingConfig      `yaml:"matching"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AnthropicConfig holds Anthropic API configuration
type AnthropicConfig struct {
	APIKey                string `yaml:"api_key"`
	Model                 string `yaml:"model"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// RequestTimeout returns the request timeout as a duration.
func (c AnthropicConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MatchingConfig holds reconciliation engine tuning
type MatchingConfig struct {
	// AutoReconcileThreshold is the minimum score for automatic
	// reconciliation, expressed as a decimal string ("0.95").
	AutoReconcileThreshold string `yaml:"auto_reconcile_threshold"`

	// CandidateLimit caps how many open invoices a single suggestion
	// request considers.
	CandidateLimit int `yaml:"candidate_limit"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ANTHROPIC_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("LEDGERLINK_DB_PATH", "ledgerlink.db"),
		},
		Anthropic: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		},
		Matching: MatchingConfig{
			AutoReconcileThreshold: getEnv("AUTO_RECONCILE_THRESHOLD", "0.95"),
			CandidateLimit:         getEnvInt("MATCH_CANDIDATE_LIMIT", 100),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "ledgerlink.db"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-3-5-sonnet-20241022"
	}
	if c.Anthropic.RequestTimeoutSeconds == 0 {
		c.Anthropic.RequestTimeoutSeconds = 30
	}
	if c.Matching.AutoReconcileThreshold == "" {
		c.Matching.AutoReconcileThreshold = "0.95"
	}
	if c.Matching.CandidateLimit == 0 {
		c.Matching.CandidateLimit = 100
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	if configValue != "" {
		return configValue
	}

	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
