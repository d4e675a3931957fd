package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/ripe-tester/internal/config"
	"github.com/zjy-dev/ripe-tester/internal/logger"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logDir     string
}

// NewRipetestCommand creates the root command for the ripetest tool.
func NewRipetestCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "ripetest",
		Short: "Run the RIPE64 attack matrix and summarize which attacks succeed.",
		Long: `ripetest drives the RIPE64 attack generator over every attack configuration,
classifies each one as OK, SOME, FAIL or not possible, and prints a summary.`,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: search configs/, ../configs/, ../../configs/)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "Also write logs to a timestamped file in this directory")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFlagsCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// setup loads the configuration and initializes logging. Call the returned
// function when the command finishes.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, func(), error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.LogDir = o.logDir
	}

	logger.Init(cfg.LogLevel)
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogDir != "" {
		if err := logger.InitWithFile(cfg.LogLevel, cfg.LogDir); err != nil {
			return nil, nil, err
		}
		logger.Info("Logging to %s", logger.GetLogFilePath())
	}
	return cfg, logger.Close, nil
}
