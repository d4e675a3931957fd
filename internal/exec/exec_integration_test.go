//go:build integration

package exec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommandExecutor_Integration_TimeoutKillsProcessGroup checks that a
// grandchild started by the command dies with it on timeout.
func TestCommandExecutor_Integration_TimeoutKillsProcessGroup(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "grandchild-survived")

	executor := NewCommandExecutor()
	result, err := executor.RunCommand(context.Background(), &Command{
		Path:    "sh",
		Args:    []string{"-c", "(sleep 1; touch " + marker + ") & sleep 10"},
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, "SIGKILL", result.Signal)

	time.Sleep(1500 * time.Millisecond)
	assert.NoFileExists(t, marker)
}

// TestCommandExecutor_Integration_WorkDir tests that relative paths resolve in Dir.
func TestCommandExecutor_Integration_WorkDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ripe_log"), []byte("header\n"), 0644))

	executor := NewCommandExecutor()
	result, err := executor.RunCommand(context.Background(), &Command{
		Path: "cat",
		Args: []string{"ripe_log"},
		Dir:  dir,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "header\n", result.Stdout)
}

// TestCommandExecutor_Integration_NonZeroExit tests non-zero exit code.
func TestCommandExecutor_Integration_NonZeroExit(t *testing.T) {
	executor := NewCommandExecutor()

	result, err := executor.Run("false")
	require.NoError(t, err) // Should not return error for non-zero exit
	assert.Equal(t, 1, result.ExitCode)
	assert.Empty(t, result.Signal)
}
