package planclient

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ClientConfig holds configuration for the plan API client.
type ClientConfig struct {
	// BaseURL is the server root the plan and engine paths are appended to,
	// e.g. http://localhost:8080.
	BaseURL string

	// Timeout bounds every request. A request that does not finish in time
	// is reported like any other transport failure.
	Timeout time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://localhost:8080",
		Timeout: 30 * time.Second,
	}
}

// ClientConfigFromEnv reads client configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - DBAAS_SERVER: API root URL (default: "http://localhost:8080")
//   - DBAAS_CLIENT_TIMEOUT: request timeout, "45s" or a number of seconds
//     (default: 30s)
func ClientConfigFromEnv() *ClientConfig {
	cfg := DefaultClientConfig()

	if v := os.Getenv("DBAAS_SERVER"); v != "" {
		cfg.BaseURL = v
	}

	if v := os.Getenv("DBAAS_CLIENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		} else if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func (c *ClientConfig) baseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}
