// Package config loads the tester's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RIPE_BUILD_DIR or RIPE_RUN_WORKERS.
const EnvPrefix = "RIPE"

// Config is the content of the top-level "config" key.
type Config struct {
	// RipeDir holds the RIPE Makefile; the flags driver runs make there.
	RipeDir          string `mapstructure:"ripe_dir"`
	BuildDir         string `mapstructure:"build_dir"`
	GeneratorPattern string `mapstructure:"generator_pattern"`
	ScratchRoot      string `mapstructure:"scratch_root"`
	SDEPath          string `mapstructure:"sde_path"`
	ResultsDir       string `mapstructure:"results_dir"`
	MakeCommand      string `mapstructure:"make_command"`

	LogLevel string `mapstructure:"log_level"`
	LogDir   string `mapstructure:"log_dir"`

	Run RunConfig `mapstructure:"run"`
}

// RunConfig holds defaults for the run command; flags override them.
type RunConfig struct {
	Number     int           `mapstructure:"number"`
	Techniques string        `mapstructure:"techniques"`
	Compiler   string        `mapstructure:"compiler"`
	Format     string        `mapstructure:"format"`
	Summary    string        `mapstructure:"summary"`
	CET        string        `mapstructure:"cet"`
	Workers    int           `mapstructure:"workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Results    string        `mapstructure:"results"`
}

type fileConfig struct {
	Config Config `mapstructure:"config"`
}

// defaults are keyed relative to "config".
var defaults = map[string]any{
	"ripe_dir":          ".",
	"build_dir":         "build",
	"generator_pattern": "%s_attack_gen",
	"scratch_root":      "",
	"sde_path":          "sde64",
	"results_dir":       "data",
	"make_command":      "make",
	"log_level":         "info",
	"log_dir":           "",
	"run.number":        0,
	"run.techniques":    "both",
	"run.compiler":      "both",
	"run.format":        "bash",
	"run.summary":       "111",
	"run.cet":           "N",
	"run.workers":       1,
	"run.timeout":       "0s",
	"run.results":       "",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	return v
}

// LoadConfig reads config.yaml from the usual search paths, or from path when
// it is not empty. A missing file is not an error when searching; every field
// then keeps its default. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	for key, value := range defaults {
		v.SetDefault("config."+key, value)
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv("config."+key, envKey); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", envKey, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	if err := fc.Config.Validate(); err != nil {
		return nil, err
	}
	return &fc.Config, nil
}

// Validate checks values that cannot be fixed up later.
func (c *Config) Validate() error {
	if c.Run.Workers < 0 {
		return fmt.Errorf("invalid config: run.workers must not be negative, got %d", c.Run.Workers)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("invalid config: run.timeout must not be negative, got %s", c.Run.Timeout)
	}
	if c.Run.Number < 0 {
		return fmt.Errorf("invalid config: run.number must not be negative, got %d", c.Run.Number)
	}
	return nil
}
