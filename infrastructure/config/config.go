// Package config loads client configuration from the environment with an
// optional YAML overlay, and watches a runtime file for feature-flag
// changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Features are the runtime-toggleable decorators of the client chain.
type Features struct {
	EnableCoalescing bool `yaml:"enableCoalescing" json:"enableCoalescing"`
	EnableCaching    bool `yaml:"enableCaching" json:"enableCaching"`
	EnableRetries    bool `yaml:"enableRetries" json:"enableRetries"`
	EnableBreaker    bool `yaml:"enableBreaker" json:"enableBreaker"`
	EnableMetrics    bool `yaml:"enableMetrics" json:"enableMetrics"`
	EnableLogging    bool `yaml:"enableLogging" json:"enableLogging"`
}

// Config holds all client configuration
type Config struct {
	// Remote API
	BaseURL   string `yaml:"baseUrl"`
	AssetHost string `yaml:"assetHost"`

	// Transport tuning
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	CoalesceWindow time.Duration `yaml:"coalesceWindow"`
	CacheFreshness time.Duration `yaml:"cacheFreshness"`
	MaxRetries     int           `yaml:"maxRetries"`

	// Token storage
	TokenPath string `yaml:"tokenPath"`

	// RuntimeConfigPath, when set, names the JSON file watched for
	// feature-flag changes while the process runs.
	RuntimeConfigPath string `yaml:"runtimeConfigPath"`

	// Logging
	LogLevel    string `yaml:"logLevel"`
	Environment string `yaml:"environment"`

	// Feature flags
	Features Features `yaml:"features"`
}

// LoadConfig loads configuration from environment variables. When
// MANARA_CONFIG names a YAML file, its values overlay the environment
// defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		BaseURL:   getEnv("MANARA_BASE_URL", "https://api.manara.org"),
		AssetHost: getEnv("MANARA_ASSET_HOST", "https://api.manara.org"),

		RequestTimeout: getEnvDuration("MANARA_REQUEST_TIMEOUT", 30*time.Second),
		CoalesceWindow: getEnvDuration("MANARA_COALESCE_WINDOW", 300*time.Millisecond),
		CacheFreshness: getEnvDuration("MANARA_CACHE_FRESHNESS", 5*time.Minute),
		MaxRetries:     getEnvInt("MANARA_MAX_RETRIES", 2),

		TokenPath: getEnv("MANARA_TOKEN_PATH", defaultTokenPath()),

		RuntimeConfigPath: getEnv("MANARA_RUNTIME_CONFIG", ""),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),

		Features: Features{
			EnableCoalescing: getEnvBool("MANARA_ENABLE_COALESCING", true),
			EnableCaching:    getEnvBool("MANARA_ENABLE_CACHING", true),
			EnableRetries:    getEnvBool("MANARA_ENABLE_RETRIES", true),
			EnableBreaker:    getEnvBool("MANARA_ENABLE_BREAKER", false),
			EnableMetrics:    getEnvBool("MANARA_ENABLE_METRICS", false),
			EnableLogging:    getEnvBool("MANARA_ENABLE_LOGGING", true),
		},
	}

	if path := os.Getenv("MANARA_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig.
func Load() (*Config, error) {
	return LoadConfig()
}

// overlayFile applies a YAML file on top of the current values.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("MANARA_BASE_URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("MANARA_BASE_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.AssetHost == "" {
		return fmt.Errorf("MANARA_ASSET_HOST is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MANARA_MAX_RETRIES must not be negative")
	}
	if c.CoalesceWindow < 0 || c.CacheFreshness < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".manara-token"
	}
	return home + "/.manara/token"
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
