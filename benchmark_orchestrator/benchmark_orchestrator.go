package benchmarkorchestrator

import (
	"context"

	"github.com/Octogonapus/ForcPerf/benchmark"
	"github.com/Octogonapus/ForcPerf/report"
)

// Runs benchmarks on a platform (e.g. the local machine).
type BenchmarkOrchestrator interface {
	// Add a benchmark to be ran later.
	AddBenchmark(*benchmark.Project) error

	// Set up the environment and collect what the report needs before any benchmark runs.
	SetUp(context.Context) error

	// Run benchmarks (sequentially, in the order they were added) and return a report.
	RunBenchmarks(context.Context) (*report.Report, error)
}
