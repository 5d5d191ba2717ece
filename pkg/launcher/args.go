package launcher

import (
	"strconv"

	"github.com/probelab/logprobe/pkg/config"
)

// BuildArgs assembles the `vllm serve` argument list from the server
// configuration. The model positional argument comes first, followed by
// flags, followed by any extra passthrough arguments.
func BuildArgs(cfg config.ServerConfig) []string {
	args := []string{"serve", cfg.Model}

	if cfg.Host != "" {
		args = append(args, "--host", cfg.Host)
	}
	if cfg.Port > 0 {
		args = append(args, "--port", strconv.Itoa(cfg.Port))
	}
	if cfg.MaxModelLen > 0 {
		args = append(args, "--max-model-len", strconv.Itoa(cfg.MaxModelLen))
	}
	if cfg.Dtype != "" {
		args = append(args, "--dtype", cfg.Dtype)
	}
	if cfg.EnforceEager {
		args = append(args, "--enforce-eager")
	}
	if cfg.GPUMemoryUtilization > 0 {
		args = append(args, "--gpu-memory-utilization",
			strconv.FormatFloat(cfg.GPUMemoryUtilization, 'g', -1, 64))
	}
	if cfg.APIKey != "" {
		args = append(args, "--api-key", cfg.APIKey)
	}

	args = append(args, cfg.ExtraArgs...)
	return args
}
