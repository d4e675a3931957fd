package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ExecutionResult holds the outcome of a command execution.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Signal is the name of the signal that terminated the process (e.g. "SIGSEGV"),
	// or "" if it exited normally.
	Signal   string
	TimedOut bool
	Duration time.Duration
}

// Command describes a process to start with explicit streams.
// Nil Stdout/Stderr writers are captured into the ExecutionResult instead.
type Command struct {
	Path  string
	Args  []string
	Env   []string // appended to the current environment
	Dir   string
	Stdin io.Reader

	Stdout io.Writer
	Stderr io.Writer

	// Timeout bounds the run; zero means wait for the process indefinitely.
	Timeout time.Duration
}

// Executor defines an interface for running external commands.
// This allows for mocking in tests.
type Executor interface {
	Run(command string, args ...string) (*ExecutionResult, error)
	RunCommand(ctx context.Context, c *Command) (*ExecutionResult, error)
}

// CommandExecutor is a concrete implementation of the Executor interface
// that runs actual commands on the host system.
type CommandExecutor struct{}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// Run executes the given command and returns its captured output.
func (e *CommandExecutor) Run(command string, args ...string) (*ExecutionResult, error) {
	return e.RunCommand(context.Background(), &Command{Path: command, Args: args})
}

// RunCommand starts c, waits for it and reports how it ended.
// A non-zero exit or a terminating signal is reported in the result, not as an
// error; only failures to start the process (e.g. command not found) and
// cancellation of ctx are returned as errors.
func (e *CommandExecutor) RunCommand(ctx context.Context, c *Command) (*ExecutionResult, error) {
	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	start := time.Now()
	err := cmd.Run()

	result := &ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			result.Signal = signalName(ws.Signal())
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		// A killed process also surfaces as an ExitError; tell the caller why.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		if runCtx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
		}
	}

	return result, nil
}
