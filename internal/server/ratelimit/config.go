package ratelimit

import "time"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// DefaultCleanupInterval is how often idle client limiters are dropped
const DefaultCleanupInterval = 5 * time.Minute

// ResearchConfig limits every POST under /research/ to perMinute requests
// per client with the given burst. Other endpoints are not limited.
func ResearchConfig(enabled bool, perMinute, burst int) *Config {
	return &Config{
		Enabled:         enabled,
		CleanupInterval: DefaultCleanupInterval,
		Whitelist:       map[string]bool{},
		EndpointConfigs: []EndpointConfig{
			{Path: "/research/", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},
		},
	}
}
