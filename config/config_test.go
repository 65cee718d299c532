package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeProduction {
		t.Errorf("expected mode 'production', got %s", cfg.Mode)
	}
	if cfg.Endpoints.GenerationBaseURL != "https://generation.api.keyfall.dev" {
		t.Errorf("unexpected generation base URL %s", cfg.Endpoints.GenerationBaseURL)
	}
	if cfg.Endpoints.CredentialsPath != "/v1/credentials" {
		t.Errorf("unexpected credentials path %s", cfg.Endpoints.CredentialsPath)
	}
	if cfg.Audit.Sink != "sqlite" {
		t.Errorf("expected audit sink 'sqlite', got %s", cfg.Audit.Sink)
	}
	if cfg.Audit.Path != "keyfall-audit.db" {
		t.Errorf("expected audit path 'keyfall-audit.db', got %s", cfg.Audit.Path)
	}
	if cfg.Redis.TTLHours != 12 {
		t.Errorf("expected redis ttl 12, got %d", cfg.Redis.TTLHours)
	}
	if cfg.Defaults.MaxTokens != 1024 {
		t.Errorf("expected max tokens 1024, got %d", cfg.Defaults.MaxTokens)
	}
	if cfg.RequestTimeoutSeconds != 0 {
		t.Errorf("expected no default request timeout, got %d", cfg.RequestTimeoutSeconds)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Should return default config
	if cfg.Mode != ModeProduction {
		t.Errorf("expected default mode 'production', got %s", cfg.Mode)
	}
}

func TestLoadValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yaml := `
mode: development
endpoints:
  generation_base_url: https://generation.staging.internal
  platform_base_url: https://platform.staging.internal
  credentials_path: /internal/credentials
audit:
  sink: memory
redis:
  addr: localhost:6379
  ttl_hours: 2
defaults:
  model: gpt-4o
  max_tokens: 512
request_timeout_seconds: 30
`

	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Mode != ModeDevelopment {
		t.Errorf("expected mode 'development', got %s", cfg.Mode)
	}
	if cfg.Endpoints.GenerationBaseURL != "https://generation.staging.internal" {
		t.Errorf("unexpected generation base URL %s", cfg.Endpoints.GenerationBaseURL)
	}
	if cfg.Endpoints.CredentialsPath != "/internal/credentials" {
		t.Errorf("unexpected credentials path %s", cfg.Endpoints.CredentialsPath)
	}
	if cfg.Audit.Sink != "memory" {
		t.Errorf("expected audit sink 'memory', got %s", cfg.Audit.Sink)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected redis addr 'localhost:6379', got %s", cfg.Redis.Addr)
	}
	if cfg.Redis.TTLHours != 2 {
		t.Errorf("expected redis ttl 2, got %d", cfg.Redis.TTLHours)
	}
	if cfg.Defaults.Model != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %s", cfg.Defaults.Model)
	}
	if cfg.Defaults.MaxTokens != 512 {
		t.Errorf("expected max tokens 512, got %d", cfg.Defaults.MaxTokens)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("expected request timeout 30, got %d", cfg.RequestTimeoutSeconds)
	}

	// Unset fields still get defaults
	if cfg.Endpoints.GeneratePath != "/v1/chat/completions" {
		t.Errorf("unexpected generate path %s", cfg.Endpoints.GeneratePath)
	}
	if cfg.Redis.Key != "keyfall:credentials" {
		t.Errorf("unexpected redis key %s", cfg.Redis.Key)
	}
}

func TestLoadBadlyFormattedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")

	// Badly formatted YAML (tabs instead of spaces, inconsistent indentation)
	badYAML := `
mode: development
	endpoints:
  generation_base_url: broken
	audit: [
`

	if err := os.WriteFile(configPath, []byte(badYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error (graceful fallback), got %v", err)
	}

	// Should fall back to defaults
	if cfg.Mode != ModeProduction {
		t.Errorf("expected default mode 'production', got %s", cfg.Mode)
	}
}

func TestEnvOverrides(t *testing.T) {
	os.Setenv("KEYFALL_MODE", "development")
	os.Setenv("KEYFALL_GENERATION_URL", "https://generation.test.internal")
	os.Setenv("KEYFALL_AUDIT_SINK", "http")
	os.Setenv("KEYFALL_REDIS_ADDR", "redis.test.internal:6379")
	os.Setenv("KEYFALL_REDIS_TTL_HOURS", "48")

	defer func() {
		os.Unsetenv("KEYFALL_MODE")
		os.Unsetenv("KEYFALL_GENERATION_URL")
		os.Unsetenv("KEYFALL_AUDIT_SINK")
		os.Unsetenv("KEYFALL_REDIS_ADDR")
		os.Unsetenv("KEYFALL_REDIS_TTL_HOURS")
	}()

	cfg := DefaultConfig()

	if cfg.Mode != ModeDevelopment {
		t.Errorf("expected mode 'development', got %s", cfg.Mode)
	}
	if cfg.Endpoints.GenerationBaseURL != "https://generation.test.internal" {
		t.Errorf("unexpected generation base URL %s", cfg.Endpoints.GenerationBaseURL)
	}
	if cfg.Audit.Sink != "http" {
		t.Errorf("expected audit sink 'http', got %s", cfg.Audit.Sink)
	}
	if cfg.Redis.Addr != "redis.test.internal:6379" {
		t.Errorf("unexpected redis addr %s", cfg.Redis.Addr)
	}
	if cfg.Redis.TTLHours != 48 {
		t.Errorf("expected redis ttl 48, got %d", cfg.Redis.TTLHours)
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		service  Service
		path     string
		expected string
	}{
		{
			name:     "production generation",
			mode:     ModeProduction,
			service:  ServiceGeneration,
			path:     "/v1/chat/completions",
			expected: "https://generation.api.keyfall.dev/v1/chat/completions",
		},
		{
			name:     "production platform",
			mode:     ModeProduction,
			service:  ServicePlatform,
			path:     "/v1/credentials",
			expected: "https://platform.api.keyfall.dev/v1/credentials",
		},
		{
			name:     "development stays relative",
			mode:     ModeDevelopment,
			service:  ServiceGeneration,
			path:     "/v1/chat/completions",
			expected: "/v1/chat/completions",
		},
		{
			name:     "development platform stays relative",
			mode:     ModeDevelopment,
			service:  ServicePlatform,
			path:     "/v1/traffic",
			expected: "/v1/traffic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode

			got := cfg.EndpointURL(tt.service, tt.path)
			if got != tt.expected {
				t.Errorf("EndpointURL(%s, %s) = %s, want %s", tt.service, tt.path, got, tt.expected)
			}
		})
	}
}

func TestEndpointURLTrimsTrailingSlash(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoints.PlatformBaseURL = "https://platform.api.keyfall.dev/"

	got := cfg.EndpointURL(ServicePlatform, "/v1/traffic")
	if got != "https://platform.api.keyfall.dev/v1/traffic" {
		t.Errorf("unexpected URL %s", got)
	}
}
