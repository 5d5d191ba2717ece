// Package config provides unified configuration for logprobe.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (LOGPROBE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the logprobe tools.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Probe         ProbeConfig         `yaml:"probe"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds the vLLM launch settings. These map one-to-one onto
// `vllm serve` command-line flags.
type ServerConfig struct {
	Binary               string        `yaml:"binary"`                 // default: "vllm"
	Model                string        `yaml:"model"`                  // required for the launcher
	Host                 string        `yaml:"host"`                   // default: "0.0.0.0"
	Port                 int           `yaml:"port"`                   // default: 8000
	MaxModelLen          int           `yaml:"max_model_len"`          // default: 4096
	Dtype                string        `yaml:"dtype"`                  // default: "auto"
	EnforceEager         bool          `yaml:"enforce_eager"`          // default: true
	GPUMemoryUtilization float64       `yaml:"gpu_memory_utilization"` // default: 0.9
	APIKey               string        `yaml:"api_key"`
	APIKeyFile           string        `yaml:"api_key_file"` // _file variant for api_key
	ExtraArgs            []string      `yaml:"extra_args"`
	ReadyTimeout         time.Duration `yaml:"ready_timeout"`     // default: 5m
	StopGracePeriod      time.Duration `yaml:"stop_grace_period"` // default: 15s
}

// ProbeConfig holds settings for the logprobs probe requests.
type ProbeConfig struct {
	BaseURL           string        `yaml:"base_url"` // default: http://localhost:8000
	Model             string        `yaml:"model"`    // required when not using the launcher's model
	Auth              AuthConfig    `yaml:"auth"`
	Prompt            string        `yaml:"prompt"`              // default: "What is 2+2?"
	StreamPrompt      string        `yaml:"stream_prompt"`       // default: "Count from 1 to 5."
	MaxOutputTokens   int           `yaml:"max_output_tokens"`   // default: 50
	Temperature       float64       `yaml:"temperature"`         // default: 0.7
	TopLogprobs       int           `yaml:"top_logprobs"`        // default: 5 (non-streaming)
	StreamTopLogprobs int           `yaml:"stream_top_logprobs"` // default: 3
	Timeout           time.Duration `yaml:"timeout"`             // default: 120s
}

// AuthConfig selects how the probe authenticates against the server.
type AuthConfig struct {
	Type       string        `yaml:"type"` // "none", "static", "file", "jwt"; default: "none"
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	JWTSecret  string        `yaml:"jwt_secret"`
	JWTSubject string        `yaml:"jwt_subject"`
	JWTTTL     time.Duration `yaml:"jwt_ttl"`
}

// StorageConfig holds probe run persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "none", "memory", "postgres"; default: "none"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 1000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// ObservabilityConfig holds monitoring settings for the mock backend.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Binary:               "vllm",
			Host:                 "0.0.0.0",
			Port:                 8000,
			MaxModelLen:          4096,
			Dtype:                "auto",
			EnforceEager:         true,
			GPUMemoryUtilization: 0.9,
			ReadyTimeout:         5 * time.Minute,
			StopGracePeriod:      15 * time.Second,
		},
		Probe: ProbeConfig{
			BaseURL:           "http://localhost:8000",
			Prompt:            "What is 2+2?",
			StreamPrompt:      "Count from 1 to 5.",
			MaxOutputTokens:   50,
			Temperature:       0.7,
			TopLogprobs:       5,
			StreamTopLogprobs: 3,
			Timeout:           120 * time.Second,
			Auth:              AuthConfig{Type: "none"},
		},
		Storage: StorageConfig{
			Type:    "none",
			MaxSize: 1000,
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}
