package launcher

import (
	"reflect"
	"testing"
	"time"

	"github.com/probelab/logprobe/pkg/config"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
		want []string
	}{
		{
			name: "full defaults",
			cfg: config.ServerConfig{
				Model:                "TinyLlama/TinyLlama-1.1B-Chat-v1.0",
				Host:                 "0.0.0.0",
				Port:                 8000,
				MaxModelLen:          4096,
				Dtype:                "auto",
				EnforceEager:         true,
				GPUMemoryUtilization: 0.9,
				APIKey:               "token-abc123",
			},
			want: []string{
				"serve", "TinyLlama/TinyLlama-1.1B-Chat-v1.0",
				"--host", "0.0.0.0",
				"--port", "8000",
				"--max-model-len", "4096",
				"--dtype", "auto",
				"--enforce-eager",
				"--gpu-memory-utilization", "0.9",
				"--api-key", "token-abc123",
			},
		},
		{
			name: "minimal",
			cfg:  config.ServerConfig{Model: "m"},
			want: []string{"serve", "m"},
		},
		{
			name: "extra args appended last",
			cfg: config.ServerConfig{
				Model:     "m",
				Port:      9000,
				ExtraArgs: []string{"--tensor-parallel-size", "2"},
			},
			want: []string{"serve", "m", "--port", "9000", "--tensor-parallel-size", "2"},
		},
		{
			name: "eager disabled omits flag",
			cfg: config.ServerConfig{
				Model:        "m",
				EnforceEager: false,
				Dtype:        "float16",
			},
			want: []string{"serve", "m", "--dtype", "float16"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(tt.cfg)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_RequiresModel(t *testing.T) {
	if _, err := New(config.ServerConfig{}); err == nil {
		t.Error("expected error for missing model")
	}

	l, err := New(config.ServerConfig{Model: "m", Port: 8000, StopGracePeriod: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Pid() != 0 {
		t.Errorf("Pid() before Start = %d, want 0", l.Pid())
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8000, "http://localhost:8000"},
		{"", 8000, "http://localhost:8000"},
		{"10.0.0.5", 9000, "http://10.0.0.5:9000"},
	}

	for _, tt := range tests {
		l, err := New(config.ServerConfig{Model: "m", Host: tt.host, Port: tt.port})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got := l.BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}
