package benchmarkorchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Octogonapus/ForcPerf/benchmark"
	"github.com/Octogonapus/ForcPerf/clock"
	"github.com/Octogonapus/ForcPerf/report"
	"github.com/Octogonapus/ForcPerf/toolchain"
	"github.com/hashicorp/go-version"
	"github.com/schollz/progressbar/v3"
)

type LocalBenchmarkOrchestratorInput struct {
	Epoch        clock.Epoch
	Runner       benchmark.BenchmarkRunner
	CollectSpecs func(context.Context) (*report.SystemSpecs, error)
	// Probes the compiler version. Nil skips the probe.
	ProbeVersion func(context.Context) (*version.Version, error)
	// go-version constraint checked against the probed version. Empty disables the check.
	Constraint string
	// Progress bar output. Nil disables the progress bar.
	ProgressWriter io.Writer
}

type localBenchmarkOrchestrator struct {
	input           *LocalBenchmarkOrchestratorInput
	projects        []*benchmark.Project
	specs           *report.SystemSpecs
	compilerVersion string
}

func NewLocalBenchmarkOrchestrator(input *LocalBenchmarkOrchestratorInput) *localBenchmarkOrchestrator {
	return &localBenchmarkOrchestrator{input: input}
}

func (o *localBenchmarkOrchestrator) AddBenchmark(p *benchmark.Project) error {
	if p == nil {
		return fmt.Errorf("can't add a nil benchmark")
	}
	o.projects = append(o.projects, p)
	return nil
}

func (o *localBenchmarkOrchestrator) SetUp(ctx context.Context) error {
	specs, err := o.input.CollectSpecs(ctx)
	if err != nil {
		return fmt.Errorf("collecting system specs failed: %w", err)
	}
	o.specs = specs

	if o.input.ProbeVersion == nil {
		return nil
	}
	v, err := o.input.ProbeVersion(ctx)
	if err != nil {
		slog.Warn("can't determine the compiler version", slog.String("error", err.Error()))
		return nil
	}
	o.compilerVersion = v.String()
	slog.Info("detected compiler", slog.String("version", o.compilerVersion))
	return toolchain.CheckConstraint(v, o.input.Constraint)
}

func (o *localBenchmarkOrchestrator) RunBenchmarks(ctx context.Context) (*report.Report, error) {
	if o.specs == nil {
		return nil, fmt.Errorf("orchestrator is not set up")
	}

	rep := &report.Report{
		SystemSpecs:     o.specs,
		CompilerVersion: o.compilerVersion,
		StartTime:       report.At(o.input.Epoch.Elapsed()),
		Benchmarks:      []*report.Benchmark{},
	}
	if len(o.projects) == 0 {
		slog.Warn("no benchmarks to run")
	}

	p := o.newProgressBar()
	for _, project := range o.projects {
		p.Describe(project.Name)
		b, err := o.input.Runner.Run(ctx, project)
		if err != nil {
			slog.Error("benchmark failed", slog.String("benchmark", project.Name), slog.String("error", err.Error()))
			return nil, fmt.Errorf("running benchmark %s failed: %w", project.Name, err)
		}
		rep.Benchmarks = append(rep.Benchmarks, b)
		p.Add(1)
	}
	p.Finish()

	rep.EndTime = report.At(o.input.Epoch.Elapsed())
	return rep, nil
}

func (o *localBenchmarkOrchestrator) newProgressBar() *progressbar.ProgressBar {
	n := int64(len(o.projects))
	if o.input.ProgressWriter == nil {
		return progressbar.DefaultSilent(n)
	}
	return progressbar.NewOptions64(n,
		progressbar.OptionSetWriter(o.input.ProgressWriter),
		progressbar.OptionSetDescription("Benchmarking:"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(o.input.ProgressWriter) }),
	)
}
