package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, LOGPROBE_CONFIG env, ./logprobe.yaml,
//     /etc/logprobe/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. LOGPROBE_CONFIG environment variable
// 3. ./logprobe.yaml in the current directory
// 4. /etc/logprobe/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("LOGPROBE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"logprobe.yaml",
		"/etc/logprobe/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGPROBE_MODEL"); v != "" {
		cfg.Server.Model = v
		if cfg.Probe.Model == "" {
			cfg.Probe.Model = v
		}
	}
	if v := os.Getenv("LOGPROBE_BASE_URL"); v != "" {
		cfg.Probe.BaseURL = v
	}
	if v := os.Getenv("LOGPROBE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOGPROBE_API_KEY"); v != "" {
		cfg.Server.APIKey = v
		cfg.Probe.Auth.Type = "static"
		cfg.Probe.Auth.APIKey = v
	}
	if v := os.Getenv("LOGPROBE_VLLM_BINARY"); v != "" {
		cfg.Server.Binary = v
	}
	if v := os.Getenv("LOGPROBE_TOP_LOGPROBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Probe.TopLogprobs = n
		}
	}
	if v := os.Getenv("LOGPROBE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Probe.Timeout = d
		}
	}
	if v := os.Getenv("LOGPROBE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("LOGPROBE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("LOGPROBE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOGPROBE_DEBUG"); v != "" {
		cfg.Logging.Debug = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// server.api_key_file -> server.api_key
	if cfg.Server.APIKeyFile != "" && cfg.Server.APIKey == "" {
		val, err := readSecretFile(cfg.Server.APIKeyFile)
		if err != nil {
			return fmt.Errorf("server.api_key_file: %w", err)
		}
		cfg.Server.APIKey = val
	}

	// probe.auth.api_key_file -> probe.auth.api_key
	if cfg.Probe.Auth.APIKeyFile != "" && cfg.Probe.Auth.APIKey == "" {
		val, err := readSecretFile(cfg.Probe.Auth.APIKeyFile)
		if err != nil {
			return fmt.Errorf("probe.auth.api_key_file: %w", err)
		}
		cfg.Probe.Auth.APIKey = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
