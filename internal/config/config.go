// Package config loads the process configuration from defaults, an optional
// config file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// LLMConfig configures the language model client
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"` // pins every tier when set
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// SearchConfig configures the web search provider
type SearchConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=tavily google"`
	APIKey            string        `mapstructure:"api_key"`
	GoogleCX          string        `mapstructure:"google_cx"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxResults        int           `mapstructure:"max_results" validate:"min=1,max=20"`
	CompareMaxResults int           `mapstructure:"compare_max_results" validate:"min=1,max=20"`
}

// ReportsConfig configures report storage
type ReportsConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// AnalysisConfig configures prompt construction
type AnalysisConfig struct {
	SnippetLimit int `mapstructure:"snippet_limit" validate:"min=50"`
}

// PlannerConfig configures step planning
type PlannerConfig struct {
	UseLLM bool `mapstructure:"use_llm"`
}

// PDFConfig configures best-effort PDF output
type PDFConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	ChromePath string        `mapstructure:"chrome_path"` // empty searches PATH
}

// HistoryConfig configures the optional run history store
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RateLimitConfig configures per-client limiting of research requests
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" validate:"min=1"`
	Burst             int  `mapstructure:"burst" validate:"min=1"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// Config is the immutable process configuration.
// It is loaded once at start-up and passed to constructors.
type Config struct {
	LLM          LLMConfig       `mapstructure:"llm"`
	Search       SearchConfig    `mapstructure:"search"`
	DefaultMode  types.Mode      `mapstructure:"default_mode" validate:"oneof=overview compare custom"`
	DefaultDepth types.Depth     `mapstructure:"default_depth" validate:"oneof=short medium detailed"`
	Reports      ReportsConfig   `mapstructure:"reports"`
	Analysis     AnalysisConfig  `mapstructure:"analysis"`
	Planner      PlannerConfig   `mapstructure:"planner"`
	PDF          PDFConfig       `mapstructure:"pdf"`
	History      HistoryConfig   `mapstructure:"history"`
	Auth         JWTConfig       `mapstructure:"auth"`
	RateLimit    RateLimitConfig `mapstructure:"ratelimit"`
	Server       ServerConfig    `mapstructure:"server"`
}

var defaults = map[string]any{
	"llm.api_key":                   "",
	"llm.model":                     "",
	"llm.timeout":                   "60s",
	"search.provider":               "tavily",
	"search.api_key":                "",
	"search.google_cx":              "",
	"search.timeout":                "30s",
	"search.max_results":            5,
	"search.compare_max_results":    3,
	"default_mode":                  "overview",
	"default_depth":                 "medium",
	"reports.dir":                   "reports",
	"analysis.snippet_limit":        800,
	"planner.use_llm":               false,
	"pdf.enabled":                   true,
	"pdf.timeout":                   "30s",
	"pdf.chrome_path":               "",
	"history.dsn":                   "",
	"auth.jwt_secret":               "",
	"auth.jwt_expiration_hours":     24,
	"ratelimit.enabled":             true,
	"ratelimit.requests_per_minute": 10,
	"ratelimit.burst":               3,
	"server.port":                   8000,
}

// envAliases lists extra variable names per key, in precedence order.
// Every key is also reachable as its upper-cased path (llm.timeout -> LLM_TIMEOUT).
var envAliases = map[string][]string{
	"llm.api_key":               {"LLM_API_KEY", "GEMINI_API_KEY"},
	"search.api_key":            {"SEARCH_API_KEY", "TAVILY_API_KEY"},
	"auth.jwt_secret":           {"AUTH_JWT_SECRET", "JWT_SECRET"},
	"auth.jwt_expiration_hours": {"AUTH_JWT_EXPIRATION_HOURS", "JWT_EXPIRATION_HOURS"},
	"server.port":               {"SERVER_PORT", "PORT"},
	"pdf.chrome_path":           {"PDF_CHROME_PATH", "CHROME_PATH"},
}

// New returns a viper instance with defaults and environment bindings.
// Flags can be bound on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	return v
}

// Load reads the optional config file at path (YAML or JSON) over the
// defaults, applies the environment and validates the result.
func Load(path string) (*Config, error) {
	return LoadFrom(New(), path)
}

// LoadFrom is Load on a caller-prepared viper instance
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Search.Provider = strings.ToLower(strings.TrimSpace(cfg.Search.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var configValidator = validator.New()

// Validate checks enums and numeric ranges. Credentials are checked
// separately by RequireCredentials.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: %s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if c.Search.Provider == "google" && c.Search.GoogleCX == "" {
		return fmt.Errorf("config error: search.google_cx is required for the google provider")
	}
	if c.Auth.Secret != "" {
		if err := c.Auth.normalize(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	return nil
}

// RequireCredentials reports missing API keys needed to run research
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if c.Search.APIKey == "" {
		missing = append(missing, "SEARCH_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AuthEnabled reports whether research endpoints require a bearer token
func (c *Config) AuthEnabled() bool {
	return c.Auth.Secret != ""
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
