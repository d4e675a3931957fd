// Package executor runs single RIPE trials: one invocation of the external
// attack generator under one configuration.
package executor

import (
	"context"
	"time"

	"github.com/zjy-dev/ripe-tester/internal/attack"
	"github.com/zjy-dev/ripe-tester/internal/cet"
)

// Trial identifies one execution attempt.
type Trial struct {
	Compiler string
	Config   attack.Config
	Mode     cet.Mode
	// Index is the 1-based attempt number within the configuration.
	Index int
}

// TrialOutcome is what the harness can observe about a finished trial.
type TrialOutcome struct {
	// Log is the primary log: the parameter header followed by combined stdout and stderr.
	Log string
	// Stderr is the trial's own stderr log.
	Stderr string
	// Succeeded is true when the generator created the sentinel file.
	Succeeded bool

	ExitCode int
	Signal   string
	TimedOut bool
	Duration time.Duration
}

// Executor runs a trial and reports its outcome.
// Implementations must be used by one goroutine at a time.
type Executor interface {
	RunTrial(ctx context.Context, t Trial) (*TrialOutcome, error)
}
