package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/ripe-tester/internal/exec"
)

// MockExecutor is a mock implementation of exec.Executor for testing.
type MockExecutor struct {
	RunCommandFunc func(ctx context.Context, c *exec.Command) (*exec.ExecutionResult, error)
	Commands       []*exec.Command
}

func (m *MockExecutor) Run(command string, args ...string) (*exec.ExecutionResult, error) {
	return m.RunCommand(context.Background(), &exec.Command{Path: command, Args: args})
}

func (m *MockExecutor) RunCommand(ctx context.Context, c *exec.Command) (*exec.ExecutionResult, error) {
	m.Commands = append(m.Commands, c)
	if m.RunCommandFunc != nil {
		return m.RunCommandFunc(ctx, c)
	}
	return &exec.ExecutionResult{ExitCode: 0}, nil
}

func TestParseCompilers(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"gcc", []string{"gcc"}, false},
		{"clang", []string{"clang"}, false},
		{"both", []string{"gcc", "clang"}, false},
		{"BOTH", []string{"gcc", "clang"}, false},
		{"icc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompilers(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCompilers_DoesNotAliasNames(t *testing.T) {
	got, err := ParseCompilers("both")
	require.NoError(t, err)
	got[0] = "changed"
	assert.Equal(t, GCC, Names[0])
}

func TestNewBuilder_Defaults(t *testing.T) {
	b := NewBuilder(BuilderConfig{WorkDir: "/opt/ripe"})

	assert.Equal(t, "make", b.makePath)
	assert.Equal(t, "/opt/ripe", b.workDir)
	assert.NotNil(t, b.executor)
}

func TestBuilder_CleanAndBuild(t *testing.T) {
	mock := &MockExecutor{}
	b := newBuilder(BuilderConfig{
		MakePath:    "gmake",
		WorkDir:     "/opt/ripe",
		HardenFlags: "-fstack-protector-strong -fcf-protection=full",
	}, mock)

	res, err := b.Clean(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "clean", res.Target)

	res, err = b.Build(context.Background(), "gcc")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "build/gcc_attack_gen", res.Target)

	require.Len(t, mock.Commands, 2)
	for _, c := range mock.Commands {
		assert.Equal(t, "gmake", c.Path)
		assert.Equal(t, "/opt/ripe", c.Dir)
		assert.Equal(t, []string{"HARDEN_FLAGS=-fstack-protector-strong -fcf-protection=full"}, c.Env)
	}
	assert.Equal(t, []string{"clean"}, mock.Commands[0].Args)
	assert.Equal(t, []string{"build/gcc_attack_gen"}, mock.Commands[1].Args)
}

func TestBuilder_EmptyHardenFlagsStillExported(t *testing.T) {
	mock := &MockExecutor{}
	b := newBuilder(BuilderConfig{}, mock)

	_, err := b.Build(context.Background(), "clang")
	require.NoError(t, err)
	require.Len(t, mock.Commands, 1)
	assert.Equal(t, []string{"HARDEN_FLAGS="}, mock.Commands[0].Env)
}

func TestBuilder_BuildFailure(t *testing.T) {
	mock := &MockExecutor{
		RunCommandFunc: func(ctx context.Context, c *exec.Command) (*exec.ExecutionResult, error) {
			return &exec.ExecutionResult{ExitCode: 2, Stderr: "make: *** No rule to make target"}, nil
		},
	}
	b := newBuilder(BuilderConfig{}, mock)

	res, err := b.Build(context.Background(), "gcc")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Stderr, "No rule to make target")
}

func TestBuilder_MakeNotFound(t *testing.T) {
	mock := &MockExecutor{
		RunCommandFunc: func(ctx context.Context, c *exec.Command) (*exec.ExecutionResult, error) {
			return nil, errors.New("executable file not found in $PATH")
		},
	}
	b := newBuilder(BuilderConfig{}, mock)

	_, err := b.Clean(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run make clean")
}

func TestGeneratorTarget(t *testing.T) {
	assert.Equal(t, "build/clang_attack_gen", GeneratorTarget("clang"))
}
