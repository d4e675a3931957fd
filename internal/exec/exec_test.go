package exec

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandExecutor_Run(t *testing.T) {
	executor := NewCommandExecutor()

	t.Run("should execute a simple command successfully", func(t *testing.T) {
		result, err := executor.Run("echo", "hello world")
		require.NoError(t, err)
		assert.Equal(t, "hello world\n", result.Stdout)
		assert.Empty(t, result.Stderr)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("should capture stderr", func(t *testing.T) {
		result, err := executor.Run("sh", "-c", "echo 'hello stderr' 1>&2")
		require.NoError(t, err)
		assert.Empty(t, result.Stdout)
		assert.Equal(t, "hello stderr\n", result.Stderr)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("should handle non-zero exit codes", func(t *testing.T) {
		result, err := executor.Run("sh", "-c", "exit 42")
		require.NoError(t, err) // We don't expect an error from Run itself
		assert.Equal(t, 42, result.ExitCode)
		assert.Empty(t, result.Signal)
	})

	t.Run("should return error for non-existent command", func(t *testing.T) {
		_, err := executor.Run("this_command_does_not_exist_12345")
		assert.Error(t, err)
	})

}

func TestCommandExecutor_RunCommand(t *testing.T) {
	executor := NewCommandExecutor()
	ctx := context.Background()

	t.Run("should feed stdin and route streams", func(t *testing.T) {
		var combined, errOnly bytes.Buffer
		result, err := executor.RunCommand(ctx, &Command{
			Path:   "sh",
			Args:   []string{"-c", "read line; echo got:$line; echo oops 1>&2"},
			Stdin:  strings.NewReader("payload\n"),
			Stdout: &combined,
			Stderr: &errOnly,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(t, "got:payload\n", combined.String())
		assert.Equal(t, "oops\n", errOnly.String())
		assert.Empty(t, result.Stdout)
	})

	t.Run("should append extra environment", func(t *testing.T) {
		result, err := executor.RunCommand(ctx, &Command{
			Path: "sh",
			Args: []string{"-c", "echo $RIPE_TEST_VAR"},
			Env:  []string{"RIPE_TEST_VAR=shadow"},
		})
		require.NoError(t, err)
		assert.Equal(t, "shadow\n", result.Stdout)
	})

	t.Run("should report terminating signal", func(t *testing.T) {
		result, err := executor.RunCommand(ctx, &Command{
			Path: "sh",
			Args: []string{"-c", "kill -SEGV $$"},
		})
		require.NoError(t, err)
		assert.Equal(t, "SIGSEGV", result.Signal)
		assert.Equal(t, -1, result.ExitCode)
	})

	t.Run("should kill on timeout", func(t *testing.T) {
		start := time.Now()
		result, err := executor.RunCommand(ctx, &Command{
			Path:    "sh",
			Args:    []string{"-c", "sleep 10"},
			Timeout: 200 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.True(t, result.TimedOut)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("should return context error when cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()
		_, err := executor.RunCommand(cctx, &Command{Path: "sh", Args: []string{"-c", "sleep 10"}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
