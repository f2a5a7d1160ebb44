package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Octogonapus/ForcPerf/benchmark"
	benchmarkorchestrator "github.com/Octogonapus/ForcPerf/benchmark_orchestrator"
	"github.com/Octogonapus/ForcPerf/clock"
	"github.com/Octogonapus/ForcPerf/config"
	"github.com/Octogonapus/ForcPerf/report"
	systemmonitor "github.com/Octogonapus/ForcPerf/system_monitor"
	"github.com/Octogonapus/ForcPerf/target"
	"github.com/Octogonapus/ForcPerf/toolchain"
	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// newRootCmd builds the command tree. Every timestamp in the report is an offset from epoch.
func newRootCmd(epoch clock.Epoch, stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "forc-perf",
		Short: "Benchmark the forc compiler against the projects in a tests directory",
		Long: `forc-perf builds every project under the tests directory with forc, one at a time,
recording the compiler's phase timings and bytecode size along with sampled CPU,
memory and disk usage. The results are written as JSON and summarized on stdout.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(cfgFile)
			if err != nil {
				return err
			}
			err = bindFlags(v, cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err = config.Load(v)
			if err != nil {
				return err
			}
			return setUpLogger(cfg.LogLevel, cfg.LogFormat, stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd.Context(), epoch, cfg, stdout, stderr)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (any format viper reads). Settings from FORC_PERF_* environment variables and flags take precedence.")
	flags.String("tests-dir", "./tests/", "Directory whose <group>/<project> subdirectories are benchmarked.")
	flags.String("log-level", "info", fmt.Sprintf("Log level. Must be one of: %s.", strings.Join(config.LogLevels, ", ")))
	flags.String("log-format", "text", fmt.Sprintf("Log format. Must be one of: %s.", strings.Join(config.LogFormats, ", ")))

	local := root.Flags()
	local.String("output", "./benchmarks.json", "Where to write the report.")
	local.String("compiler", "forc", "The compiler executable.")
	local.StringSlice("compiler-args", config.DefaultCompilerArgs(), "Arguments passed to the compiler for every project.")
	local.Duration("timeout", 0, "Kill the compiler after this long. Zero disables the timeout.")
	local.Duration("drain-timeout", 5*time.Second, "How long to keep reading compiler output after it exits. Zero waits for end of output.")
	local.String("compiler-constraint", "", "Version constraint the compiler should satisfy, e.g. \">= 0.60\". A mismatch is logged.")
	local.Bool("progress", true, "Show a progress bar on stderr.")
	local.Bool("frames", false, "List every sampled frame in the summary.")

	root.AddCommand(newListCmd(stdout, &cfg))
	return root
}

func newListCmd(stdout io.Writer, cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the benchmarks that would be run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := benchmark.Discover((*cfg).TestsDir)
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintf(stdout, "%s\t%s\n", p.Name, p.Path)
			}
			return nil
		},
	}
}

// bindFlags binds every flag of fs to the viper key of the same name with dashes as underscores. Only flags the user
// set override lower layers.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" || f.Name == "help" {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

func runSuite(ctx context.Context, epoch clock.Epoch, cfg *config.Config, stdout, stderr io.Writer) error {
	projects, err := benchmark.Discover(cfg.TestsDir)
	if err != nil {
		return err
	}
	slog.Info("discovered benchmarks", slog.String("testsDir", cfg.TestsDir), slog.Int("count", len(projects)))

	runner := benchmark.NewBenchmarkRunner(epoch, &benchmark.BenchmarkRunnerInput{
		Target:       target.NewLocalTarget(),
		Compiler:     cfg.Compiler,
		CompilerArgs: cfg.CompilerArgs,
		NumCPUs:      systemmonitor.LogicalCPUs(ctx),
		Timeout:      cfg.Timeout,
		DrainTimeout: cfg.DrainTimeout,
	})

	var progress io.Writer
	if cfg.Progress {
		progress = stderr
	}
	orch := benchmarkorchestrator.NewLocalBenchmarkOrchestrator(&benchmarkorchestrator.LocalBenchmarkOrchestratorInput{
		Epoch:        epoch,
		Runner:       runner,
		CollectSpecs: systemmonitor.CollectSystemSpecs,
		ProbeVersion: func(ctx context.Context) (*version.Version, error) {
			return toolchain.ProbeVersion(ctx, cfg.Compiler)
		},
		Constraint:     cfg.CompilerConstraint,
		ProgressWriter: progress,
	})
	for _, p := range projects {
		err = orch.AddBenchmark(p)
		if err != nil {
			return err
		}
	}

	err = orch.SetUp(ctx)
	if err != nil {
		return err
	}
	rep, err := orch.RunBenchmarks(ctx)
	if err != nil {
		return err
	}
	return finish(rep, cfg.Output, cfg.Frames, stdout)
}

func finish(rep *report.Report, output string, frames bool, stdout io.Writer) error {
	err := rep.WriteFile(output)
	if err != nil {
		return err
	}
	rep.PrintSummary(stdout, frames)
	return nil
}
