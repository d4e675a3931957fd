// Package compiler builds the RIPE attack generator for a compiler with a set
// of hardening flags.
package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/zjy-dev/ripe-tester/internal/exec"
	"github.com/zjy-dev/ripe-tester/internal/logger"
)

// Supported compilers, in the order they are tested.
const (
	GCC   = "gcc"
	Clang = "clang"
)

// Names lists the supported compilers.
var Names = []string{GCC, Clang}

// ParseCompilers accepts "gcc", "clang" or "both".
func ParseCompilers(s string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case GCC:
		return []string{GCC}, nil
	case Clang:
		return []string{Clang}, nil
	case "both", "":
		return append([]string(nil), Names...), nil
	default:
		return nil, fmt.Errorf("unknown compiler %q (want gcc, clang or both)", s)
	}
}

// BuildResult holds the outcome of a make invocation.
type BuildResult struct {
	Target  string
	Success bool
	Stdout  string
	Stderr  string
}

// BuilderConfig holds the configuration for Builder.
type BuilderConfig struct {
	MakePath    string // make executable (default "make")
	WorkDir     string // directory holding the RIPE Makefile
	HardenFlags string // exported to make as HARDEN_FLAGS
}

// Builder drives the RIPE Makefile.
type Builder struct {
	executor    exec.Executor
	makePath    string
	workDir     string
	hardenFlags string
}

// NewBuilder creates a Builder that runs real commands.
func NewBuilder(cfg BuilderConfig) *Builder {
	return newBuilder(cfg, exec.NewCommandExecutor())
}

func newBuilder(cfg BuilderConfig, e exec.Executor) *Builder {
	makePath := cfg.MakePath
	if makePath == "" {
		makePath = "make"
	}
	return &Builder{
		executor:    e,
		makePath:    makePath,
		workDir:     cfg.WorkDir,
		hardenFlags: cfg.HardenFlags,
	}
}

// GeneratorTarget is the make target of a compiler's attack generator.
func GeneratorTarget(compiler string) string {
	return fmt.Sprintf("build/%s_attack_gen", compiler)
}

// Clean runs "make clean".
func (b *Builder) Clean(ctx context.Context) (*BuildResult, error) {
	return b.make(ctx, "clean")
}

// Build builds the attack generator for compiler with the configured flags.
func (b *Builder) Build(ctx context.Context, compiler string) (*BuildResult, error) {
	return b.make(ctx, GeneratorTarget(compiler))
}

func (b *Builder) make(ctx context.Context, target string) (*BuildResult, error) {
	logger.Info("Running %s %s (HARDEN_FLAGS=%q)", b.makePath, target, b.hardenFlags)

	result, err := b.executor.RunCommand(ctx, &exec.Command{
		Path: b.makePath,
		Args: []string{target},
		Env:  []string{"HARDEN_FLAGS=" + b.hardenFlags},
		Dir:  b.workDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run %s %s: %w", b.makePath, target, err)
	}

	br := &BuildResult{
		Target:  target,
		Success: result.ExitCode == 0,
		Stdout:  result.Stdout,
		Stderr:  result.Stderr,
	}
	if !br.Success {
		logger.Warn("%s %s exited with %d", b.makePath, target, result.ExitCode)
	}
	return br, nil
}
