package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/ripe-tester/internal/compiler"
	"github.com/zjy-dev/ripe-tester/internal/config"
	"github.com/zjy-dev/ripe-tester/internal/harden"
	"github.com/zjy-dev/ripe-tester/internal/logger"
)

type generatorBuilder interface {
	Clean(ctx context.Context) (*compiler.BuildResult, error)
	Build(ctx context.Context, name string) (*compiler.BuildResult, error)
}

// Test seams.
var (
	newBuilder = func(cfg compiler.BuilderConfig) generatorBuilder { return compiler.NewBuilder(cfg) }
	runCore    = runTests
)

// flagsParams are the resolved inputs of the flags driver.
type flagsParams struct {
	Set         harden.Set
	HardwareCET bool
	Number      int
	Compiler    string
	Format      string
}

// NewFlagsCommand creates the "flags" subcommand.
func NewFlagsCommand(global *globalOptions) *cobra.Command {
	var (
		hardwareCET bool
		number      int
		compilers   string
		format      string
	)
	enabled := make(map[string]*bool, len(harden.Flags))

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Rebuild the generator with hardening flags and test it.",
		Long: `Rebuild the generator with a combination of hardening flags and test it.

The selected flags are passed to make as HARDEN_FLAGS. The generator is then
tested with both techniques and the summary is written to
<results_dir>/out-<flags>.

Examples:
  # Stack canaries and FORTIFY_SOURCE
  ripetest flags -s -d

  # Full CET, running on a CPU with shadow stack support
  ripetest flags -f --enable-hardware-cet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, done, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			p := flagsParams{
				Set:         harden.Set{},
				HardwareCET: hardwareCET,
				Number:      number,
				Compiler:    compilers,
				Format:      format,
			}
			for id, on := range enabled {
				p.Set[id] = *on
			}
			return runFlags(cmd.Context(), cfg, p)
		},
	}

	shorthands := map[string]string{"stkcan": "s", "stkcla": "c", "dforti": "d", "fcfpro": "f", "mshstk": "m"}
	usage := map[string]string{
		"stkcan": "Add stack canaries",
		"stkcla": "Add stack clash protection",
		"dforti": "Add FORTIFY_SOURCE",
		"fcfpro": "Add Intel CET (full control-flow protection)",
		"mshstk": "Add Intel shadow stack (return protection)",
	}
	for _, f := range harden.Flags {
		on := new(bool)
		enabled[f.ID] = on
		cmd.Flags().BoolVarP(on, f.ID, shorthands[f.ID], false, fmt.Sprintf("%s (%s)", usage[f.ID], f.CFlags))
	}
	cmd.Flags().BoolVar(&hardwareCET, "enable-hardware-cet", false, "Use hardware CET instead of SDE emulation")
	cmd.Flags().IntVar(&number, "number", 3, "Trials per configuration")
	cmd.Flags().StringVar(&compilers, "compiler", compiler.GCC, "Compilers to build and test: gcc, clang or both")
	cmd.Flags().StringVar(&format, "format", "latex", "Summary format: bash, latex or markdown")

	return cmd
}

// runFlags rebuilds the generators with the selected hardening flags and runs
// the tests, writing everything the run prints to the output file.
func runFlags(ctx context.Context, cfg *config.Config, p flagsParams) error {
	compilers, err := compiler.ParseCompilers(p.Compiler)
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.ResultsDir, cfg.BuildDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	hardenFlags := p.Set.HardenFlags()
	mode := p.Set.CETMode(p.HardwareCET)
	logger.Info("Hardening flags: %q, CET mode %s", hardenFlags, mode)

	b := newBuilder(compiler.BuilderConfig{
		MakePath:    cfg.MakeCommand,
		WorkDir:     cfg.RipeDir,
		HardenFlags: hardenFlags,
	})
	if _, err := b.Clean(ctx); err != nil {
		return err
	}
	for _, c := range compilers {
		res, err := b.Build(ctx, c)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("failed to build %s:\n%s", res.Target, res.Stderr)
		}
	}

	outPath := filepath.Join(cfg.ResultsDir, p.Set.OutputName())
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	rp := paramsFromConfig(cfg)
	rp.Number = p.Number
	rp.Techniques = "both"
	rp.Compiler = p.Compiler
	rp.Format = p.Format
	rp.CET = string(mode)

	if err := runCore(ctx, f, rp); err != nil {
		return err
	}
	logger.Info("Results written to %s", outPath)
	return nil
}
