package launcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/probelab/logprobe/pkg/config"
	"github.com/probelab/logprobe/pkg/debug"
)

// Launcher supervises a single vLLM server process.
type Launcher struct {
	cfg config.ServerConfig

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	exitErr error
}

// New creates a Launcher for the given server configuration.
// Returns an error if the configuration cannot describe a launchable server.
func New(cfg config.ServerConfig) (*Launcher, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("launcher: model is required")
	}
	if cfg.Binary == "" {
		cfg.Binary = "vllm"
	}
	return &Launcher{cfg: cfg}, nil
}

// Start launches the vLLM process. The child's stdout and stderr are piped
// through structured logging. Cancelling ctx interrupts the process; if it
// has not exited after the configured grace period it is killed.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd != nil {
		return fmt.Errorf("launcher: already started")
	}

	args := BuildArgs(l.cfg)
	cmd := exec.CommandContext(ctx, l.cfg.Binary, args...)
	cmd.Env = os.Environ()

	// On context cancellation, interrupt first so vLLM can release the GPU
	// and close connections. WaitDelay escalates to SIGKILL afterwards.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGINT)
	}
	cmd.WaitDelay = l.cfg.StopGracePeriod

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("launcher: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("launcher: stderr pipe: %w", err)
	}

	slog.Info("starting vLLM server",
		"binary", l.cfg.Binary,
		"model", l.cfg.Model,
		"port", l.cfg.Port,
	)
	debug.Log("launcher", "command line", "args", args)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launcher: starting %s: %w", l.cfg.Binary, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forwardOutput(stdout, slog.LevelInfo)
	}()
	go func() {
		defer wg.Done()
		forwardOutput(stderr, slog.LevelWarn)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		err := cmd.Wait()
		l.mu.Lock()
		l.exitErr = err
		l.mu.Unlock()
		close(done)
	}()

	l.cmd = cmd
	l.done = done
	return nil
}

// Wait blocks until the process exits or ctx is cancelled. A nil return
// means the process exited with status zero.
func (l *Launcher) Wait(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return fmt.Errorf("launcher: not started")
	}

	select {
	case <-done:
		l.mu.Lock()
		err := l.exitErr
		l.mu.Unlock()
		if err != nil {
			return fmt.Errorf("launcher: vLLM exited: %w", err)
		}
		slog.Info("vLLM server exited cleanly")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop interrupts the process and waits for it to exit. If the grace period
// elapses first, the process is killed and Stop reports the kill.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	cmd := l.cmd
	done := l.done
	l.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	slog.Info("stopping vLLM server", "pid", cmd.Process.Pid)
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		// The process may already be gone.
		debug.Log("launcher", "interrupt failed", "error", err.Error())
	}

	grace := l.cfg.StopGracePeriod
	if grace <= 0 {
		grace = 15 * time.Second
	}

	select {
	case <-done:
		// A non-zero exit after an interrupt is normal.
		return nil
	case <-time.After(grace):
		slog.Warn("vLLM did not exit within grace period, killing",
			"grace_period", grace.String())
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("launcher: killing process: %w", err)
		}
		<-done
		return nil
	}
}

// BaseURL returns the local URL the launched server listens on. A wildcard
// bind address is reachable via localhost.
func (l *Launcher) BaseURL() string {
	host := l.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, l.cfg.Port)
}

// Pid returns the process id of the running server, or 0 when not started.
func (l *Launcher) Pid() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd == nil || l.cmd.Process == nil {
		return 0
	}
	return l.cmd.Process.Pid
}

// forwardOutput relays child process output lines to the logger. vLLM writes
// its progress to stderr, so stderr lines are logged at the given level
// rather than treated as errors.
func forwardOutput(r io.Reader, level slog.Level) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 16*1024), 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		slog.Log(context.Background(), level, line, "source", "vllm")
	}
}
