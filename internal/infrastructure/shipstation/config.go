// Package shipstation implements the shipping platform port against the
// ShipStation V1 API.
package shipstation

import (
	"errors"
	"time"
)

// Config holds configuration for the ShipStation API integration
type Config struct {
	// APIKey is the API key from the ShipStation account settings
	APIKey string
	// APISecret is the API secret paired with the key
	APISecret string
	// BaseURL is the base URL for the ShipStation API
	BaseURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// MaxRetries bounds retries of transient failures per request
	MaxRetries int
	// RetryDelay is the backoff base; attempt n waits RetryDelay * 2^(n-1)
	RetryDelay time.Duration
}

// ProductionAPIURL is the production API endpoint
const ProductionAPIURL = "https://ssapi.shipstation.com"

// Errors for ShipStation configuration
var (
	ErrConfigMissingAPIKey    = errors.New("shipstation: API key is required")
	ErrConfigMissingAPISecret = errors.New("shipstation: API secret is required")
)

// NewConfig creates a new ShipStation configuration with defaults
func NewConfig(apiKey, apiSecret string) *Config {
	return &Config{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		BaseURL:    ProductionAPIURL,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.APISecret == "" {
		return ErrConfigMissingAPISecret
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return nil
}
