package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Octogonapus/ForcPerf/clock"
	"github.com/Octogonapus/ForcPerf/report"
	systemmonitor "github.com/Octogonapus/ForcPerf/system_monitor"
	"github.com/Octogonapus/ForcPerf/target"
	"github.com/alitto/pond"
)

// Lines buffered between the line reader and the reconciler.
const lineBufferSize = 1024

type BenchmarkRunnerInput struct {
	Target       target.Target
	Compiler     string
	CompilerArgs []string
	// Creates the process observer for each benchmark's sampler.
	NewObserver func() systemmonitor.ProcessObserver
	NumCPUs     int
	// Sampler period; systemmonitor.MinimumFrameDuration when zero.
	FrameDuration time.Duration
	// Kill the compiler after this long. Zero disables the timeout.
	Timeout time.Duration
	// How long to keep reading output after the compiler exits. Zero waits for end of stream.
	DrainTimeout time.Duration
}

// Runs one benchmark: spawns the compiler, reads its markers, samples its resource usage and assembles the record.
type BenchmarkRunner interface {
	Run(ctx context.Context, p *Project) (*report.Benchmark, error)
}

type benchmarkRunner struct {
	epoch clock.Epoch
	input *BenchmarkRunnerInput
}

func NewBenchmarkRunner(epoch clock.Epoch, input *BenchmarkRunnerInput) BenchmarkRunner {
	if input.NewObserver == nil {
		input.NewObserver = systemmonitor.NewProcessObserver
	}
	return &benchmarkRunner{epoch: epoch, input: input}
}

func (br *benchmarkRunner) Run(ctx context.Context, p *Project) (*report.Benchmark, error) {
	err := VerifyPath(p.Path)
	if err != nil {
		return nil, err
	}

	slog.Info("starting benchmark", slog.String("name", p.Name))
	b := report.NewBenchmark(p.Name, p.Path)
	b.StartTime = report.At(br.epoch.Elapsed())

	var childCtx context.Context
	var cancelChild context.CancelFunc
	if br.input.Timeout > 0 {
		childCtx, cancelChild = context.WithTimeout(ctx, br.input.Timeout)
	} else {
		childCtx, cancelChild = context.WithCancel(ctx)
	}
	defer cancelChild()

	cmd := &target.Command{Exe: br.input.Compiler, Args: br.input.CompilerArgs, Dir: p.Path}
	slog.Debug("benchmark command", slog.String("name", p.Name), slog.String("exe", cmd.Exe), slog.Any("args", cmd.Args))
	child, err := br.input.Target.Spawn(childCtx, cmd)
	if err != nil {
		return nil, fmt.Errorf("spawning compiler for benchmark %s failed: %w", p.Name, err)
	}
	stdout, err := child.TakeStdout()
	if err != nil {
		child.Kill()
		child.Wait()
		return nil, err
	}

	// The sampler also stops whenever the reader is stopped.
	readerCtx, stopReader := context.WithCancel(ctx)
	samplerCtx, stopSampler := context.WithCancel(readerCtx)
	defer stopReader()

	lines := make(chan string, lineBufferSize)
	sampler := systemmonitor.NewSampler(&systemmonitor.SamplerInput{
		Epoch:         br.epoch,
		Pid:           child.Pid(),
		Observer:      br.input.NewObserver(),
		NumCPUs:       br.input.NumCPUs,
		FrameDuration: br.input.FrameDuration,
	})

	var workerPanic any
	panicMu := sync.Mutex{}
	pool := pond.New(2, 0, pond.MinWorkers(2), pond.PanicHandler(func(p any) {
		panicMu.Lock()
		workerPanic = p
		panicMu.Unlock()
	}))
	pool.Submit(func() { newLineReader(stdout, lines).Run(readerCtx) })
	pool.Submit(func() { sampler.Run(samplerCtx, &b.Frames) })

	rec := newReconciler(br.epoch, b)
	waitErr := rec.wait(child, lines, stopSampler, br.input.DrainTimeout)
	if waitErr != nil {
		child.Kill()
	}

	stopSampler()
	stopReader()
	stdout.Close()
	pool.StopAndWait()
	status, exited := child.TryWait()
	if !exited {
		slog.Debug("waiting for compiler to exit", slog.String("name", p.Name))
		status = child.Wait()
	}

	b.EndTime = report.At(br.epoch.Elapsed())

	panicMu.Lock()
	defer panicMu.Unlock()
	if workerPanic != nil {
		return b, fmt.Errorf("benchmark %s worker panicked: %v", p.Name, workerPanic)
	}
	if waitErr != nil {
		return b, fmt.Errorf("benchmark %s: %w", p.Name, waitErr)
	}
	if ctx.Err() != nil {
		return b, ctx.Err()
	}
	if errors.Is(childCtx.Err(), context.DeadlineExceeded) {
		slog.Warn("compiler timed out and was killed", slog.String("name", p.Name), slog.Duration("timeout", br.input.Timeout))
	} else if !status.Success() {
		attrs := []any{slog.String("name", p.Name), slog.Int("exitCode", status.Code)}
		if status.Err != nil {
			attrs = append(attrs, slog.String("error", status.Err.Error()))
		}
		slog.Warn("compiler exited unsuccessfully", attrs...)
	}
	if open := rec.openPhases(); len(open) > 0 {
		slog.Warn("phases never stopped", slog.String("name", p.Name), slog.Any("phases", open))
	}

	slog.Info("finished benchmark", slog.String("name", p.Name), slog.Duration("total", b.TotalTime()), slog.Int("phases", len(b.Phases)), slog.Int("frames", b.Frames.Len()))
	return b, nil
}
