package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjy-dev/ripe-tester/internal/cet"
	"github.com/zjy-dev/ripe-tester/internal/exec"
	"github.com/zjy-dev/ripe-tester/internal/logger"
)

const (
	// DefaultGeneratorPattern names the generator binary for a compiler.
	DefaultGeneratorPattern = "%s_attack_gen"

	primaryLogName = "ripe_log"
	sentinelDir    = "ripe-eval"
	sentinelName   = "f_xxxx"
)

// ProcessConfig holds the configuration for Process.
type ProcessConfig struct {
	BuildDir         string // Directory holding <compiler>_attack_gen binaries
	GeneratorPattern string // fmt pattern for the binary name, default "%s_attack_gen"
	ScratchRoot      string // Parent for the private scratch dir; "" means os.TempDir()
	SDEPath          string // Emulator used for cet.Emulated
	Timeout          time.Duration
}

// Process runs trials by starting the real generator binary.
// Every Process owns a private scratch directory holding its logs and
// sentinel, so several can run side by side without cross-talk.
type Process struct {
	executor exec.Executor
	cfg      ProcessConfig
	workDir  string
}

// NewProcess creates a Process and its scratch directory.
// Call Close to remove the directory.
func NewProcess(cfg ProcessConfig) (*Process, error) {
	return newProcess(cfg, exec.NewCommandExecutor())
}

func newProcess(cfg ProcessConfig, e exec.Executor) (*Process, error) {
	if cfg.GeneratorPattern == "" {
		cfg.GeneratorPattern = DefaultGeneratorPattern
	}
	if cfg.ScratchRoot != "" {
		if err := os.MkdirAll(cfg.ScratchRoot, 0755); err != nil {
			return nil, fmt.Errorf("failed to create scratch root: %w", err)
		}
	}
	workDir, err := os.MkdirTemp(cfg.ScratchRoot, "ripe-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	// The generator runs inside workDir, so the sentinel path it is given must be absolute.
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to resolve scratch directory: %w", err)
	}
	return &Process{executor: e, cfg: cfg, workDir: absDir}, nil
}

// WorkDir returns the private scratch directory.
func (p *Process) WorkDir() string {
	return p.workDir
}

// SentinelPath is the file the generator's spawned shell is told to create.
func (p *Process) SentinelPath() string {
	return filepath.Join(p.workDir, sentinelDir, sentinelName)
}

// BinaryPath returns the generator binary for compiler.
func (p *Process) BinaryPath(compiler string) (string, error) {
	path := filepath.Join(p.cfg.BuildDir, fmt.Sprintf(p.cfg.GeneratorPattern, compiler))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve generator path %s: %w", path, err)
	}
	return abs, nil
}

// RunTrial starts the generator once and collects its logs and the sentinel.
func (p *Process) RunTrial(ctx context.Context, t Trial) (*TrialOutcome, error) {
	sentinel := p.SentinelPath()
	if err := os.MkdirAll(filepath.Dir(sentinel), 0755); err != nil {
		return nil, fmt.Errorf("failed to create sentinel directory: %w", err)
	}
	// A sentinel left by an interrupted run must not count for this trial.
	if err := removeIfExists(sentinel); err != nil {
		return nil, err
	}

	binary, err := p.BinaryPath(t.Compiler)
	if err != nil {
		return nil, err
	}

	primaryPath := filepath.Join(p.workDir, primaryLogName)
	stderrPath := filepath.Join(p.workDir, fmt.Sprintf("%s2_%d", primaryLogName, t.Index))

	primary, err := os.OpenFile(primaryPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log %s: %w", primaryPath, err)
	}
	defer primary.Close()
	secondary, err := os.Create(stderrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log %s: %w", stderrPath, err)
	}
	defer secondary.Close()

	if _, err := fmt.Fprintln(primary, t.Config.String()); err != nil {
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}

	cmd := &exec.Command{
		Path:    binary,
		Args:    t.Config.Args(),
		Dir:     p.workDir,
		Stdin:   strings.NewReader("touch " + sentinel + "\n"),
		Stdout:  primary,
		Stderr:  io.MultiWriter(primary, secondary),
		Timeout: p.cfg.Timeout,
	}
	wrapper := cet.NewWrapper(t.Mode, p.cfg.SDEPath)
	wrapper.Wrap(cmd)

	logger.Debug("trial %d: %s%s %s", t.Index, wrapper.Prefix(), binary, t.Config)

	res, err := p.executor.RunCommand(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to run generator %s: %w", binary, err)
	}
	primary.Close()
	secondary.Close()

	logData, err := os.ReadFile(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", primaryPath, err)
	}
	stderrData, err := os.ReadFile(stderrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", stderrPath, err)
	}

	outcome := &TrialOutcome{
		Log:      string(logData),
		Stderr:   string(stderrData),
		ExitCode: res.ExitCode,
		Signal:   res.Signal,
		TimedOut: res.TimedOut,
		Duration: res.Duration,
	}

	if _, err := os.Stat(sentinel); err == nil {
		outcome.Succeeded = true
		if err := removeIfExists(sentinel); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// Close removes the scratch directory.
func (p *Process) Close() error {
	if p.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(p.workDir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", p.workDir, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
