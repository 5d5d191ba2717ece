package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	if c.Server.GPUMemoryUtilization <= 0 || c.Server.GPUMemoryUtilization > 1 {
		errs = append(errs, fmt.Errorf("server.gpu_memory_utilization must be in (0, 1], got %v", c.Server.GPUMemoryUtilization))
	}

	if c.Probe.BaseURL == "" {
		errs = append(errs, fmt.Errorf("probe.base_url is required"))
	} else if !strings.HasPrefix(c.Probe.BaseURL, "http://") && !strings.HasPrefix(c.Probe.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("probe.base_url must start with http:// or https://, got %q", c.Probe.BaseURL))
	}

	if c.Probe.TopLogprobs < 0 || c.Probe.TopLogprobs > 20 {
		errs = append(errs, fmt.Errorf("probe.top_logprobs must be between 0 and 20, got %d", c.Probe.TopLogprobs))
	}
	if c.Probe.StreamTopLogprobs < 0 || c.Probe.StreamTopLogprobs > 20 {
		errs = append(errs, fmt.Errorf("probe.stream_top_logprobs must be between 0 and 20, got %d", c.Probe.StreamTopLogprobs))
	}

	// probe.auth.type must be a known value.
	switch c.Probe.Auth.Type {
	case "none", "static", "file", "jwt", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("probe.auth.type must be \"none\", \"static\", \"file\", or \"jwt\", got %q", c.Probe.Auth.Type))
	}

	if c.Probe.Auth.Type == "jwt" && c.Probe.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("probe.auth.jwt_secret is required when probe.auth.type is \"jwt\""))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "none", "memory", "postgres", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"none\", \"memory\", or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}
