// Package runner drives the attack generator over the configuration matrix,
// classifies every configuration and folds the verdicts into per-compiler totals.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zjy-dev/ripe-tester/internal/attack"
	"github.com/zjy-dev/ripe-tester/internal/cet"
	"github.com/zjy-dev/ripe-tester/internal/executor"
	"github.com/zjy-dev/ripe-tester/internal/logger"
	"github.com/zjy-dev/ripe-tester/internal/oracle"
	"github.com/zjy-dev/ripe-tester/internal/report"
	"github.com/zjy-dev/ripe-tester/internal/state"
)

// ExecutorFactory creates one executor per worker.
// Executors that implement io.Closer are closed when the run ends.
type ExecutorFactory func() (executor.Executor, error)

// Options holds configuration for a run.
type Options struct {
	// Repeat is the number of trials per configuration.
	Repeat     int
	Compilers  []string
	Techniques []attack.Technique
	Mode       cet.Mode
	Visibility Visibility

	// Workers is the number of configurations run concurrently (default 1).
	Workers int

	// Out receives the streamed verdict lines (default stdout).
	Out io.Writer
	// Progress is optional.
	Progress *state.Progress
	// Record is optional; every entry is added to it and it is saved after each compiler.
	Record *state.FileManager
}

// Runner runs the configuration matrix for each compiler.
type Runner struct {
	opts        Options
	newExecutor ExecutorFactory
}

// New creates a Runner.
func New(opts Options, factory ExecutorFactory) (*Runner, error) {
	if opts.Repeat <= 0 {
		return nil, fmt.Errorf("repeat count must be positive, got %d", opts.Repeat)
	}
	if len(opts.Compilers) == 0 {
		return nil, fmt.Errorf("no compilers to test")
	}
	if factory == nil {
		return nil, fmt.Errorf("executor factory is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if len(opts.Techniques) == 0 {
		opts.Techniques = attack.Techniques
	}
	return &Runner{opts: opts, newExecutor: factory}, nil
}

// Run tests every compiler in order and returns their totals.
// A harness error or context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context) (state.Results, error) {
	execs := make([]executor.Executor, 0, r.opts.Workers)
	defer func() {
		for _, ex := range execs {
			if c, ok := ex.(io.Closer); ok {
				if err := c.Close(); err != nil {
					logger.Warn("Failed to clean up executor: %v", err)
				}
			}
		}
	}()
	for i := 0; i < r.opts.Workers; i++ {
		ex, err := r.newExecutor()
		if err != nil {
			return nil, fmt.Errorf("failed to create executor: %w", err)
		}
		execs = append(execs, ex)
	}

	configs := attack.Enumerate(r.opts.Techniques)
	total := len(configs) * len(r.opts.Compilers)
	var started atomic.Int64

	results := make(state.Results, 0, len(r.opts.Compilers))
	for _, compiler := range r.opts.Compilers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("Testing %s: %d configurations, %d trials each, CET mode %s",
			compiler, len(configs), r.opts.Repeat, r.opts.Mode)

		totals := &state.Totals{}
		err := r.runCompiler(ctx, compiler, configs, execs, totals, &started, total)
		if r.opts.Progress != nil {
			r.opts.Progress.Clear()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to test %s: %w", compiler, err)
		}
		results = append(results, state.CompilerTotals{Compiler: compiler, Totals: *totals})

		logger.Info("Finished %s: OK=%d SOME=%d FAIL=%d NP=%d",
			compiler, totals.OK, totals.Some, totals.Fail, totals.NotPossible)

		if r.opts.Record != nil {
			r.opts.Record.SetResults(results)
			if err := r.opts.Record.Save(); err != nil {
				return nil, fmt.Errorf("failed to save run record: %w", err)
			}
		}
	}
	return results, nil
}

// runCompiler distributes the configurations to one goroutine per executor
// and emits their entries in enumeration order.
func (r *Runner) runCompiler(ctx context.Context, compiler string, configs []attack.Config,
	execs []executor.Executor, totals *state.Totals, started *atomic.Int64, total int) error {
	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan int)
	slots := make([]chan state.Entry, len(configs))
	for i := range slots {
		slots[i] = make(chan state.Entry, 1)
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range configs {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for _, ex := range execs {
		g.Go(func() error {
			for i := range jobs {
				cfg := configs[i]
				if r.opts.Progress != nil {
					r.opts.Progress.Update(compiler, cfg.String(), int(started.Add(1)), total)
				}
				entry, err := RunConfig(gctx, ex, compiler, cfg, r.opts.Mode, r.opts.Repeat)
				if err != nil {
					return err
				}
				slots[i] <- entry
			}
			return nil
		})
	}

	g.Go(func() error {
		for i := range configs {
			select {
			case e := <-slots[i]:
				r.emit(e, totals)
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	return g.Wait()
}

func (r *Runner) emit(e state.Entry, totals *state.Totals) {
	totals.Add(e.Verdict)
	if r.opts.Record != nil {
		r.opts.Record.AddEntry(e)
	}
	logger.Debug("%s %s: %s (%d/%d)", e.Compiler, e.Config.Key(), e.Verdict, e.Successes, e.Attempts)

	if !r.opts.Visibility.Shows(e.Verdict) {
		return
	}
	if r.opts.Progress != nil {
		r.opts.Progress.Clear()
	}
	fmt.Fprintln(r.opts.Out, report.FormatLine(e))
}

// RunConfig runs up to repeat trials of one configuration and classifies it.
//
// The first trial whose log carries the impossibility marker ends the
// configuration as IMPOSSIBLE. Otherwise the verdict follows from the number of
// trials that created the sentinel, and the log tags of every trial are merged.
// FAIL and SOME verdicts additionally get the first crash signature of each trial.
func RunConfig(ctx context.Context, ex executor.Executor, compiler string, cfg attack.Config,
	mode cet.Mode, repeat int) (state.Entry, error) {
	entry := state.Entry{Compiler: compiler, Config: cfg}

	var tags oracle.TagSet
	outcomes := make([]*executor.TrialOutcome, 0, repeat)
	for i := 1; i <= repeat; i++ {
		out, err := ex.RunTrial(ctx, executor.Trial{Compiler: compiler, Config: cfg, Mode: mode, Index: i})
		if err != nil {
			return entry, fmt.Errorf("failed to run trial %d of %s: %w", i, cfg.Key(), err)
		}
		entry.Attempts++

		if oracle.IsImpossible(out.Log) {
			entry.Verdict = oracle.Impossible
			return entry, nil
		}

		tags.Add(oracle.ScanLog(out.Log)...)
		if out.TimedOut {
			tags.Add(oracle.Timeout)
		}
		if out.Succeeded {
			entry.Successes++
		}
		outcomes = append(outcomes, out)
	}

	entry.Verdict = oracle.Decide(entry.Successes, entry.Attempts, false)
	if entry.Verdict.NeedsCrashScan() {
		for _, out := range outcomes {
			if tag, ok := oracle.ScanCrash(out.Stderr, out.Signal); ok {
				tags.Add(tag)
			}
		}
	}
	entry.Tags = tags.List()
	return entry, nil
}
