package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./tests/", cfg.TestsDir)
	assert.Equal(t, "./benchmarks.json", cfg.Output)
	assert.Equal(t, "forc", cfg.Compiler)
	assert.Equal(t, []string{"build", "--profile-phases", "--time-phases", "--log-level", "5"}, cfg.CompilerArgs)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.DrainTimeout)
	assert.Equal(t, "", cfg.CompilerConstraint)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.Progress)
	assert.False(t, cfg.Frames)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forc-perf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tests_dir: ./e2e/
timeout: 2m
compiler_args: [build, --release]
progress: false
frames: true
`), 0o644))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./e2e/", cfg.TestsDir)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, []string{"build", "--release"}, cfg.CompilerArgs)
	assert.False(t, cfg.Progress)
	assert.True(t, cfg.Frames)
	assert.Equal(t, "forc", cfg.Compiler)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FORC_PERF_COMPILER", "/opt/fuel/bin/forc")
	t.Setenv("FORC_PERF_DRAIN_TIMEOUT", "250ms")
	t.Setenv("FORC_PERF_COMPILER_ARGS", "build,--time-phases")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/opt/fuel/bin/forc", cfg.Compiler)
	assert.Equal(t, 250*time.Millisecond, cfg.DrainTimeout)
	assert.Equal(t, []string{"build", "--time-phases"}, cfg.CompilerArgs)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("FORC_PERF_OUTPUT", "env.json")

	v, err := New("")
	require.NoError(t, err)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "./benchmarks.json", "")
	require.NoError(t, v.BindPFlag("output", flags.Lookup("output")))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "env.json", cfg.Output)

	require.NoError(t, flags.Parse([]string{"--output", "flag.json"}))
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "flag.json", cfg.Output)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TestsDir:     "./tests/",
			Output:       "./benchmarks.json",
			Compiler:     "forc",
			CompilerArgs: DefaultCompilerArgs(),
			LogLevel:     "info",
			LogFormat:    "text",
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"empty tests dir":      func(c *Config) { c.TestsDir = "" },
		"empty output":         func(c *Config) { c.Output = "" },
		"empty compiler":       func(c *Config) { c.Compiler = "" },
		"no args":              func(c *Config) { c.CompilerArgs = nil },
		"negative timeout":     func(c *Config) { c.Timeout = -time.Second },
		"negative drain":       func(c *Config) { c.DrainTimeout = -time.Second },
		"unknown level":        func(c *Config) { c.LogLevel = "trace" },
		"unknown format":       func(c *Config) { c.LogFormat = "xml" },
		"unparsable constrain": func(c *Config) { c.CompilerConstraint = "about 1.0" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
