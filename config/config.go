package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Environment variables named FORC_PERF_<KEY> override the config file.
const EnvPrefix = "FORC_PERF"

var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

type Config struct {
	TestsDir     string        `mapstructure:"tests_dir"`
	Output       string        `mapstructure:"output"`
	Compiler     string        `mapstructure:"compiler"`
	CompilerArgs []string      `mapstructure:"compiler_args"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
	// go-version constraint the compiler should satisfy, e.g. ">= 0.60". Empty disables the check.
	CompilerConstraint string `mapstructure:"compiler_constraint"`
	LogLevel           string `mapstructure:"log_level"`
	LogFormat          string `mapstructure:"log_format"`
	Progress           bool   `mapstructure:"progress"`
	// List every frame in the console summary.
	Frames bool `mapstructure:"frames"`
}

func DefaultCompilerArgs() []string {
	return []string{"build", "--profile-phases", "--time-phases", "--log-level", "5"}
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("tests_dir", "./tests/")
	v.SetDefault("output", "./benchmarks.json")
	v.SetDefault("compiler", "forc")
	v.SetDefault("compiler_args", DefaultCompilerArgs())
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("drain_timeout", 5*time.Second)
	v.SetDefault("compiler_constraint", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("progress", true)
	v.SetDefault("frames", false)
}

// New returns a viper instance layered as defaults, then cfgFile (if not empty), then the environment. Flags are bound
// on top by the caller.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s failed: %w", cfgFile, err)
		}
	}
	return v, nil
}

// Load decodes the merged settings of v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	err = decoder.Decode(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("decoding config failed: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TestsDir == "" {
		return fmt.Errorf("tests_dir must not be empty")
	}
	if c.Output == "" {
		return fmt.Errorf("output must not be empty")
	}
	if c.Compiler == "" {
		return fmt.Errorf("compiler must not be empty")
	}
	if len(c.CompilerArgs) == 0 {
		return fmt.Errorf("compiler_args must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.DrainTimeout < 0 {
		return fmt.Errorf("drain_timeout must not be negative, got %s", c.DrainTimeout)
	}
	if !slices.Contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(LogLevels, ", "), c.LogLevel)
	}
	if !slices.Contains(LogFormats, c.LogFormat) {
		return fmt.Errorf("log_format must be one of %s, got %q", strings.Join(LogFormats, ", "), c.LogFormat)
	}
	if c.CompilerConstraint != "" {
		if _, err := version.NewConstraint(c.CompilerConstraint); err != nil {
			return fmt.Errorf("can't parse compiler_constraint: %w", err)
		}
	}
	return nil
}
