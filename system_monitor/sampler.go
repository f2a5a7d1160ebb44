package systemmonitor

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/Octogonapus/ForcPerf/clock"
	"github.com/Octogonapus/ForcPerf/report"
	"github.com/shirou/gopsutil/v3/cpu"
)

// MinimumFrameDuration caps the sampling rate and gives the OS delta counters a meaningful window.
const MinimumFrameDuration = 100 * time.Millisecond

// LogicalCPUs returns the number of logical CPUs, falling back to the Go runtime's view if the OS query fails.
func LogicalCPUs(ctx context.Context) int {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

type SamplerInput struct {
	Epoch    clock.Epoch
	Pid      int32
	Observer ProcessObserver
	NumCPUs  int
	// Defaults to MinimumFrameDuration when zero.
	FrameDuration time.Duration
}

// Sampler periodically records resource usage of one process into a frame log.
type Sampler struct {
	input *SamplerInput
}

func NewSampler(input *SamplerInput) *Sampler {
	if input.FrameDuration <= 0 {
		input.FrameDuration = MinimumFrameDuration
	}
	if input.NumCPUs < 1 {
		input.NumCPUs = 1
	}
	return &Sampler{input: input}
}

// Run samples until ctx is cancelled or the process can no longer be observed. Frames collected before shutdown are
// kept in frames.
func (s *Sampler) Run(ctx context.Context, frames *report.FrameLog) {
	var prev *ProcessStats
	for {
		frameStart := time.Now()

		if ctx.Err() != nil {
			slog.Debug("SystemMonitor: stop requested", slog.Int("pid", int(s.input.Pid)))
			return
		}

		stats, err := s.input.Observer.Observe(ctx, s.input.Pid)
		if errors.Is(err, ErrProcessGone) {
			slog.Debug("SystemMonitor: process exited", slog.Int("pid", int(s.input.Pid)))
			return
		} else if err != nil {
			if ctx.Err() == nil {
				slog.Warn("SystemMonitor: failed to refresh process stats", slog.Int("pid", int(s.input.Pid)), slog.String("error", err.Error()))
			}
			return
		} else if stats == nil {
			panic("process observer reported success without process stats")
		}

		frames.Append(s.frame(frameStart, stats, prev))
		prev = stats

		elapsed := time.Since(frameStart)
		if elapsed < s.input.FrameDuration {
			select {
			case <-ctx.Done():
				slog.Debug("SystemMonitor: stop requested", slog.Int("pid", int(s.input.Pid)))
				return
			case <-time.After(s.input.FrameDuration - elapsed):
			}
		}
	}
}

func (s *Sampler) frame(frameStart time.Time, curr *ProcessStats, prev *ProcessStats) report.BenchmarkFrame {
	readDelta := curr.ReadBytes
	writeDelta := curr.WriteBytes
	if prev != nil {
		readDelta = counterDelta(curr.ReadBytes, prev.ReadBytes)
		writeDelta = counterDelta(curr.WriteBytes, prev.WriteBytes)
	}
	return report.BenchmarkFrame{
		Timestamp:             report.Duration(s.input.Epoch.Since(frameStart)),
		CPUUsage:              float32(curr.CPUPercent / float64(s.input.NumCPUs)),
		MemoryUsage:           curr.RSS,
		VirtualMemoryUsage:    curr.VMS,
		DiskTotalWrittenBytes: curr.WriteBytes,
		DiskWrittenBytes:      writeDelta,
		DiskTotalReadBytes:    curr.ReadBytes,
		DiskReadBytes:         readDelta,
	}
}

func counterDelta(curr, prev uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}
