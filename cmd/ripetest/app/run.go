package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/ripe-tester/internal/attack"
	"github.com/zjy-dev/ripe-tester/internal/cet"
	"github.com/zjy-dev/ripe-tester/internal/compiler"
	"github.com/zjy-dev/ripe-tester/internal/config"
	"github.com/zjy-dev/ripe-tester/internal/executor"
	"github.com/zjy-dev/ripe-tester/internal/logger"
	"github.com/zjy-dev/ripe-tester/internal/report"
	"github.com/zjy-dev/ripe-tester/internal/runner"
	"github.com/zjy-dev/ripe-tester/internal/state"
)

// runParams are the resolved inputs of one test run.
type runParams struct {
	Number     int
	Techniques string
	Compiler   string
	Format     string
	Summary    string
	// Show* override single digits of Summary when set.
	ShowOK   *bool
	ShowSome *bool
	ShowFail *bool
	CET      string

	BuildDir         string
	GeneratorPattern string
	SDEPath          string
	ScratchRoot      string
	Workers          int
	Timeout          time.Duration
	Results          string
	Quiet            bool
}

// paramsFromConfig fills runParams with the configured defaults.
func paramsFromConfig(cfg *config.Config) runParams {
	return runParams{
		Number:           cfg.Run.Number,
		Techniques:       cfg.Run.Techniques,
		Compiler:         cfg.Run.Compiler,
		Format:           cfg.Run.Format,
		Summary:          cfg.Run.Summary,
		CET:              cfg.Run.CET,
		BuildDir:         cfg.BuildDir,
		GeneratorPattern: cfg.GeneratorPattern,
		SDEPath:          cfg.SDEPath,
		ScratchRoot:      cfg.ScratchRoot,
		Workers:          cfg.Run.Workers,
		Timeout:          cfg.Run.Timeout,
		Results:          cfg.Run.Results,
	}
}

// NewRunCommand creates the "run" subcommand.
func NewRunCommand(global *globalOptions) *cobra.Command {
	var (
		number      int
		techniques  string
		compilers   string
		format      string
		summary     string
		showOK      bool
		showSome    bool
		showFail    bool
		cetMode     string
		buildDir    string
		sdePath     string
		scratchRoot string
		workers     int
		timeout     time.Duration
		results     string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every attack configuration against the built generators.",
		Long: `Run every attack configuration against the built generators.

Each configuration is tried --number times. A configuration is OK when every
trial spawned the shell, SOME when only some did, and FAIL when none did.
Configurations the generator reports as impossible are only counted.

Configuration:
  Default values are loaded from config.yaml under the 'run' section.
  Command line flags override the config file values.

Examples:
  # Three trials per configuration, both compilers, bash summary
  ripetest run -n 3

  # Only direct attacks with gcc, LaTeX table, under emulated CET
  ripetest run -n 3 -t direct -c gcc -f latex --cet E

  # Show only failed attacks, four workers, save the results
  ripetest run -n 3 -s 001 --workers 4 --results data/run.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := global.setup(cmd)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			defer done()

			p := paramsFromConfig(cfg)
			flags := cmd.Flags()
			if flags.Changed("number") {
				p.Number = number
			}
			if flags.Changed("techniques") {
				p.Techniques = techniques
			}
			if flags.Changed("compiler") {
				p.Compiler = compilers
			}
			if flags.Changed("format") {
				p.Format = format
			}
			if flags.Changed("summary") {
				p.Summary = summary
			}
			if flags.Changed("show-ok") {
				p.ShowOK = &showOK
			}
			if flags.Changed("show-some") {
				p.ShowSome = &showSome
			}
			if flags.Changed("show-fail") {
				p.ShowFail = &showFail
			}
			if flags.Changed("cet") {
				p.CET = cetMode
			}
			if flags.Changed("build-dir") {
				p.BuildDir = buildDir
			}
			if flags.Changed("sde-path") {
				p.SDEPath = sdePath
			}
			if flags.Changed("scratch-root") {
				p.ScratchRoot = scratchRoot
			}
			if flags.Changed("workers") {
				p.Workers = workers
			}
			if flags.Changed("timeout") {
				p.Timeout = timeout
			}
			if flags.Changed("results") {
				p.Results = results
			}
			p.Quiet = quiet

			pl, err := p.plan()
			if err != nil {
				return err
			}
			// Arguments are valid; later failures are not usage errors.
			cmd.SilenceUsage = true
			return pl.execute(cmd.Context(), cmd.OutOrStdout())
		},
	}

	// Flags (these are placeholder defaults, actual defaults come from config)
	cmd.Flags().IntVarP(&number, "number", "n", 0, "Trials per configuration (> 0; required unless run.number is set in the config)")
	cmd.Flags().StringVarP(&techniques, "techniques", "t", "both", "Techniques to test: direct, indirect or both")
	cmd.Flags().StringVarP(&compilers, "compiler", "c", "both", "Compilers to test: gcc, clang or both")
	cmd.Flags().StringVarP(&format, "format", "f", "bash", "Summary format: bash, latex or markdown")
	cmd.Flags().StringVarP(&summary, "summary", "s", "111", "Which verdict lines to show, as 0/1 digits for SOME, OK, FAIL")
	cmd.Flags().BoolVar(&showOK, "show-ok", true, "Show OK lines (overrides --summary)")
	cmd.Flags().BoolVar(&showSome, "show-some", true, "Show SOME lines (overrides --summary)")
	cmd.Flags().BoolVar(&showFail, "show-fail", true, "Show FAIL lines (overrides --summary)")
	cmd.Flags().StringVar(&cetMode, "cet", "N", "CET mode: N (none), E (emulated with SDE) or H (hardware)")
	cmd.Flags().StringVar(&buildDir, "build-dir", "build", "Directory holding <compiler>_attack_gen")
	cmd.Flags().StringVar(&sdePath, "sde-path", cet.DefaultSDEPath, "Intel SDE executable for --cet E")
	cmd.Flags().StringVar(&scratchRoot, "scratch-root", "", "Parent directory for per-worker scratch dirs (default: system temp dir)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Configurations to run in parallel")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill a trial after this long (0 = no limit)")
	cmd.Flags().StringVar(&results, "results", "", "Save the run record as JSON to this path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress line")

	return cmd
}

// visibility resolves the summary digits and the individual overrides.
func (p runParams) visibility() (runner.Visibility, error) {
	v, err := runner.ParseSummary(p.Summary)
	if err != nil {
		return v, err
	}
	if p.ShowOK != nil {
		v.OK = *p.ShowOK
	}
	if p.ShowSome != nil {
		v.Some = *p.ShowSome
	}
	if p.ShowFail != nil {
		v.Fail = *p.ShowFail
	}
	return v, nil
}

// runPlan is a validated runParams.
type runPlan struct {
	params     runParams
	techniques []attack.Technique
	compilers  []string
	visibility runner.Visibility
	mode       cet.Mode
	reporter   report.Reporter
}

// plan checks every argument before any process is started.
func (p runParams) plan() (*runPlan, error) {
	if p.Number <= 0 {
		return nil, fmt.Errorf("--number must be a positive integer, got %d", p.Number)
	}
	techniques, err := attack.ParseTechniques(p.Techniques)
	if err != nil {
		return nil, err
	}
	compilers, err := compiler.ParseCompilers(p.Compiler)
	if err != nil {
		return nil, err
	}
	visibility, err := p.visibility()
	if err != nil {
		return nil, err
	}
	mode, err := cet.ParseMode(p.CET)
	if err != nil {
		return nil, err
	}
	reporter, err := report.New(p.Format)
	if err != nil {
		return nil, err
	}
	if p.Workers < 0 || p.Timeout < 0 {
		return nil, fmt.Errorf("--workers and --timeout must not be negative")
	}
	return &runPlan{
		params:     p,
		techniques: techniques,
		compilers:  compilers,
		visibility: visibility,
		mode:       mode,
		reporter:   reporter,
	}, nil
}

// runTests validates p, runs the matrix and writes the verdict lines and the
// summary to out.
func runTests(ctx context.Context, out io.Writer, p runParams) error {
	pl, err := p.plan()
	if err != nil {
		return err
	}
	return pl.execute(ctx, out)
}

func (pl *runPlan) execute(ctx context.Context, out io.Writer) error {
	p := pl.params
	techniques, compilers, mode, reporter := pl.techniques, pl.compilers, pl.mode, pl.reporter

	var record *state.FileManager
	if p.Results != "" {
		techniqueNames := make([]string, len(techniques))
		for i, t := range techniques {
			techniqueNames[i] = string(t)
		}
		record = state.NewFileManager(p.Results, state.NewRecord(state.RunOptions{
			Repeat:     p.Number,
			Techniques: techniqueNames,
			Compilers:  compilers,
			CETMode:    string(mode),
			Workers:    p.Workers,
		}))
	}

	factory := func() (executor.Executor, error) {
		return executor.NewProcess(executor.ProcessConfig{
			BuildDir:         p.BuildDir,
			GeneratorPattern: p.GeneratorPattern,
			ScratchRoot:      p.ScratchRoot,
			SDEPath:          p.SDEPath,
			Timeout:          p.Timeout,
		})
	}

	r, err := runner.New(runner.Options{
		Repeat:     p.Number,
		Compilers:  compilers,
		Techniques: techniques,
		Mode:       mode,
		Visibility: pl.visibility,
		Workers:    p.Workers,
		Out:        out,
		Progress:   state.NewProgress(!p.Quiet),
		Record:     record,
	}, factory)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := r.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Tested %d compiler(s) in %s", len(results), time.Since(start).Round(time.Second))

	if err := reporter.Render(out, results); err != nil {
		return err
	}

	if record != nil {
		record.SetResults(results)
		if err := record.Save(); err != nil {
			return fmt.Errorf("failed to save run record: %w", err)
		}
		logger.Info("Saved run record to %s", record.GetFilePath())
	}
	return nil
}
