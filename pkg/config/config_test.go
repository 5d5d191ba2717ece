package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Binary != "vllm" {
		t.Errorf("server.binary = %q", cfg.Server.Binary)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if cfg.Server.MaxModelLen != 4096 {
		t.Errorf("server.max_model_len = %d", cfg.Server.MaxModelLen)
	}
	if !cfg.Server.EnforceEager {
		t.Error("server.enforce_eager should default to true")
	}
	if cfg.Probe.BaseURL != "http://localhost:8000" {
		t.Errorf("probe.base_url = %q", cfg.Probe.BaseURL)
	}
	if cfg.Probe.TopLogprobs != 5 || cfg.Probe.StreamTopLogprobs != 3 {
		t.Errorf("top_logprobs defaults = %d/%d", cfg.Probe.TopLogprobs, cfg.Probe.StreamTopLogprobs)
	}
	if cfg.Probe.Timeout != 120*time.Second {
		t.Errorf("probe.timeout = %v", cfg.Probe.Timeout)
	}
	if cfg.Storage.Type != "none" {
		t.Errorf("storage.type = %q", cfg.Storage.Type)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	yaml := `
server:
  model: TinyLlama/TinyLlama-1.1B-Chat-v1.0
  port: 8000
  max_model_len: 2048
  dtype: float16
probe:
  base_url: http://localhost:8000
  model: TinyLlama/TinyLlama-1.1B-Chat-v1.0
  top_logprobs: 7
  auth:
    type: static
    api_key: token-abc123
storage:
  type: memory
  max_size: 50
`
	path := filepath.Join(t.TempDir(), "logprobe.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Model != "TinyLlama/TinyLlama-1.1B-Chat-v1.0" {
		t.Errorf("server.model = %q", cfg.Server.Model)
	}
	if cfg.Server.MaxModelLen != 2048 {
		t.Errorf("server.max_model_len = %d", cfg.Server.MaxModelLen)
	}
	if cfg.Server.Dtype != "float16" {
		t.Errorf("server.dtype = %q", cfg.Server.Dtype)
	}
	if cfg.Probe.TopLogprobs != 7 {
		t.Errorf("probe.top_logprobs = %d", cfg.Probe.TopLogprobs)
	}
	if cfg.Probe.Auth.Type != "static" || cfg.Probe.Auth.APIKey != "token-abc123" {
		t.Errorf("probe.auth = %+v", cfg.Probe.Auth)
	}
	if cfg.Storage.Type != "memory" || cfg.Storage.MaxSize != 50 {
		t.Errorf("storage = %+v", cfg.Storage)
	}

	// Fields absent from the YAML keep their defaults.
	if cfg.Server.Binary != "vllm" {
		t.Errorf("server.binary should keep default, got %q", cfg.Server.Binary)
	}
	if cfg.Probe.StreamTopLogprobs != 3 {
		t.Errorf("probe.stream_top_logprobs should keep default, got %d", cfg.Probe.StreamTopLogprobs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOGPROBE_MODEL", "env-model")
	t.Setenv("LOGPROBE_PORT", "9001")
	t.Setenv("LOGPROBE_API_KEY", "env-key")
	t.Setenv("LOGPROBE_TOP_LOGPROBS", "2")
	t.Setenv("LOGPROBE_STORAGE", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Model != "env-model" || cfg.Probe.Model != "env-model" {
		t.Errorf("model override: server=%q probe=%q", cfg.Server.Model, cfg.Probe.Model)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Probe.Auth.Type != "static" || cfg.Probe.Auth.APIKey != "env-key" {
		t.Errorf("auth = %+v", cfg.Probe.Auth)
	}
	if cfg.Probe.TopLogprobs != 2 {
		t.Errorf("top_logprobs = %d", cfg.Probe.TopLogprobs)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage.type = %q", cfg.Storage.Type)
	}
}

func TestFileReferences(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "api-key")
	if err := os.WriteFile(keyPath, []byte("secret-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	yaml := `
probe:
  auth:
    type: file
    api_key_file: ` + keyPath + `
`
	path := filepath.Join(dir, "logprobe.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Probe.Auth.APIKey != "secret-from-file" {
		t.Errorf("api_key = %q, want trimmed file content", cfg.Probe.Auth.APIKey)
	}
}

func TestFileReferences_MissingFile(t *testing.T) {
	yaml := `
probe:
  auth:
    api_key_file: /nonexistent/key
`
	path := filepath.Join(t.TempDir(), "logprobe.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing secret file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantSub: "server.port",
		},
		{
			name:    "bad gpu utilization",
			mutate:  func(c *Config) { c.Server.GPUMemoryUtilization = 1.5 },
			wantSub: "gpu_memory_utilization",
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Probe.BaseURL = "" },
			wantSub: "probe.base_url",
		},
		{
			name:    "base url without scheme",
			mutate:  func(c *Config) { c.Probe.BaseURL = "localhost:8000" },
			wantSub: "probe.base_url",
		},
		{
			name:    "top_logprobs out of range",
			mutate:  func(c *Config) { c.Probe.TopLogprobs = 21 },
			wantSub: "top_logprobs",
		},
		{
			name:    "unknown auth type",
			mutate:  func(c *Config) { c.Probe.Auth.Type = "oauth" },
			wantSub: "probe.auth.type",
		},
		{
			name:    "jwt without secret",
			mutate:  func(c *Config) { c.Probe.Auth.Type = "jwt" },
			wantSub: "jwt_secret",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "redis" },
			wantSub: "storage.type",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Storage.Type = "postgres" },
			wantSub: "storage.postgres.dsn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestDiscoverConfigFile_EnvVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOGPROBE_CONFIG", path)

	if got := discoverConfigFile(""); got != path {
		t.Errorf("discoverConfigFile = %q, want %q", got, path)
	}

	// Explicit path wins over the env var.
	if got := discoverConfigFile("explicit.yaml"); got != "explicit.yaml" {
		t.Errorf("explicit path should win, got %q", got)
	}
}
