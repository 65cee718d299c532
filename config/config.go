// Package config holds the bootstrap configuration for keyfall: which
// deployment the dispatcher talks to, where the session's credential slot
// lives, and where the audit trail goes.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how endpoint URLs are formed.
type Mode string

const (
	// ModeProduction joins request paths onto the configured base hosts.
	ModeProduction Mode = "production"
	// ModeDevelopment leaves request paths relative so a local reverse
	// proxy can route them.
	ModeDevelopment Mode = "development"
)

// Service identifies one of the two upstream APIs.
type Service string

const (
	// ServiceGeneration is the model generation API.
	ServiceGeneration Service = "generation"
	// ServicePlatform hosts the credential lookup and the traffic log.
	ServicePlatform Service = "platform"
)

// Config represents the minimal bootstrap configuration
type Config struct {
	Mode      Mode         `yaml:"mode"`
	Endpoints Endpoints    `yaml:"endpoints"`
	Audit     AuditConfig  `yaml:"audit"`
	Redis     RedisConfig  `yaml:"redis"`
	Defaults  CallDefaults `yaml:"defaults"`

	// RequestTimeoutSeconds bounds one whole dispatch call, rotation
	// included, as a context deadline set by the caller. Zero means no
	// deadline.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// Endpoints holds the upstream base URLs and service paths.
type Endpoints struct {
	GenerationBaseURL string `yaml:"generation_base_url"`
	PlatformBaseURL   string `yaml:"platform_base_url"`
	CredentialsPath   string `yaml:"credentials_path"` // lookup service path
	AuditPath         string `yaml:"audit_path"`       // traffic log path
	GeneratePath      string `yaml:"generate_path"`    // generation request path
}

// AuditConfig selects where audit entries go.
type AuditConfig struct {
	Sink string `yaml:"sink"` // memory, sqlite, or http
	Path string `yaml:"path"` // sqlite database file
}

// RedisConfig enables a shared Redis credential slot when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Key      string `yaml:"key"`
	TTLHours int    `yaml:"ttl_hours"`
}

// CallDefaults seeds generation requests made from the CLI.
type CallDefaults struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Load reads config from a YAML file with graceful fallback. Returns the
// default config if the file doesn't exist or is malformed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist - use defaults
		return DefaultConfig(), nil
	}

	var cfg Config
	// Try to parse YAML, but be resilient to bad formatting
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// YAML parsing failed - use defaults
		return DefaultConfig(), nil
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KEYFALL_MODE"); v != "" {
		c.Mode = Mode(v)
	}
	if v := os.Getenv("KEYFALL_GENERATION_URL"); v != "" {
		c.Endpoints.GenerationBaseURL = v
	}
	if v := os.Getenv("KEYFALL_PLATFORM_URL"); v != "" {
		c.Endpoints.PlatformBaseURL = v
	}
	if v := os.Getenv("KEYFALL_AUDIT_SINK"); v != "" {
		c.Audit.Sink = v
	}
	if v := os.Getenv("KEYFALL_AUDIT_DB"); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv("KEYFALL_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KEYFALL_REDIS_TTL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.Redis.TTLHours = hours
		}
	}
	if v := os.Getenv("KEYFALL_MODEL"); v != "" {
		c.Defaults.Model = v
	}
	if v := os.Getenv("KEYFALL_MAX_TOKENS"); v != "" {
		if tokens, err := strconv.Atoi(v); err == nil {
			c.Defaults.MaxTokens = tokens
		}
	}
	if v := os.Getenv("KEYFALL_REQUEST_TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			c.RequestTimeoutSeconds = seconds
		}
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeProduction
	}
	if c.Endpoints.GenerationBaseURL == "" {
		c.Endpoints.GenerationBaseURL = "https://generation.api.keyfall.dev"
	}
	if c.Endpoints.PlatformBaseURL == "" {
		c.Endpoints.PlatformBaseURL = "https://platform.api.keyfall.dev"
	}
	if c.Endpoints.CredentialsPath == "" {
		c.Endpoints.CredentialsPath = "/v1/credentials"
	}
	if c.Endpoints.AuditPath == "" {
		c.Endpoints.AuditPath = "/v1/traffic"
	}
	if c.Endpoints.GeneratePath == "" {
		c.Endpoints.GeneratePath = "/v1/chat/completions"
	}
	if c.Audit.Sink == "" {
		c.Audit.Sink = "sqlite"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "keyfall-audit.db"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "keyfall:credentials"
	}
	if c.Redis.TTLHours == 0 {
		c.Redis.TTLHours = 12
	}
	if c.Defaults.Model == "" {
		c.Defaults.Model = "gpt-4o-mini"
	}
	if c.Defaults.MaxTokens == 0 {
		c.Defaults.MaxTokens = 1024
	}
}

// EndpointURL forms the full URL for a request path. Production joins the
// path onto the service's base host; development keeps the path relative
// so the local reverse proxy decides where it goes.
func (c *Config) EndpointURL(service Service, path string) string {
	if c.Mode != ModeProduction {
		return path
	}
	base := c.Endpoints.GenerationBaseURL
	if service == ServicePlatform {
		base = c.Endpoints.PlatformBaseURL
	}
	return strings.TrimRight(base, "/") + path
}
