package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// UpstreamConfig describes the external catalog API the proxy fronts.
type UpstreamConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`     // API key (can be set directly or via env var)
	APIKeyEnv string        `mapstructure:"api_key_env"` // Environment variable name for API key
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxRPS    float64       `mapstructure:"max_rps"` // outbound throttle; 0 disables it
	Burst     int           `mapstructure:"burst"`
}

// ResolveEnvVars loads the API key from APIKeyEnv when no key was set directly.
func (c *UpstreamConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
}

// Validate checks that the upstream configuration is usable.
func (c *UpstreamConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("catapi.base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("catapi.base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("catapi.max_rps must be >= 0")
	}
	if c.MaxRPS > 0 && c.Burst <= 0 {
		return fmt.Errorf("catapi.burst must be > 0 when max_rps is set")
	}
	return nil
}

// ValidateWithAPIKey validates and additionally requires an API key.
func (c *UpstreamConfig) ValidateWithAPIKey() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		if c.APIKeyEnv != "" {
			return fmt.Errorf("API key is required (set %s environment variable)", c.APIKeyEnv)
		}
		return fmt.Errorf("API key is required (set API_KEY environment variable)")
	}
	return nil
}
