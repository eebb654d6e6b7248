package config

import "fmt"

// JWTConfig holds configuration for JWT token generation and validation.
// An empty Secret disables authentication.
type JWTConfig struct {
	Secret          string `mapstructure:"jwt_secret"`
	ExpirationHours int    `mapstructure:"jwt_expiration_hours"`
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
