package systemmonitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrProcessGone means the observed pid no longer matches a live process.
var ErrProcessGone = errors.New("process is no longer observable")

// ProcessStats is one refreshed view of a single process.
type ProcessStats struct {
	// Percentage of a single CPU since the previous observation (may exceed 100 on multi-core hosts).
	CPUPercent float64
	RSS        uint64
	VMS        uint64
	ReadBytes  uint64 // cumulative
	WriteBytes uint64 // cumulative
}

// ProcessObserver refreshes OS statistics for exactly one pid.
type ProcessObserver interface {
	Observe(ctx context.Context, pid int32) (*ProcessStats, error)
}

type psObserver struct {
	proc     *process.Process
	warnedIO bool
}

// NewProcessObserver returns a gopsutil-backed observer. It keeps per-process state between calls so CPU usage is
// measured over the interval since the previous call; use a fresh observer for each benchmark.
func NewProcessObserver() ProcessObserver {
	return &psObserver{}
}

func (o *psObserver) Observe(ctx context.Context, pid int32) (*ProcessStats, error) {
	exists, err := process.PidExistsWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("checking pid %d failed: %w", pid, err)
	}
	if !exists {
		return nil, ErrProcessGone
	}

	if o.proc == nil || o.proc.Pid != pid {
		o.proc, err = process.NewProcessWithContext(ctx, pid)
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, ErrProcessGone
		} else if err != nil {
			return nil, fmt.Errorf("opening pid %d failed: %w", pid, err)
		}
	}

	cpuPercent, err := o.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return nil, o.refreshError(ctx, "cpu", err)
	}
	mem, err := o.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return nil, o.refreshError(ctx, "memory", err)
	}

	stats := &ProcessStats{
		CPUPercent: cpuPercent,
		RSS:        mem.RSS,
		VMS:        mem.VMS,
	}

	counters, err := o.proc.IOCountersWithContext(ctx)
	if err != nil {
		// Not every platform exposes per-process IO counters; record zeros instead of giving up on the frame.
		if !o.warnedIO {
			slog.Debug("SystemMonitor: disk counters unavailable", slog.Int("pid", int(pid)), slog.String("error", err.Error()))
			o.warnedIO = true
		}
	} else {
		stats.ReadBytes = counters.ReadBytes
		stats.WriteBytes = counters.WriteBytes
	}
	return stats, nil
}

// refreshError maps a failed read to ErrProcessGone when the process vanished between the existence check and the read.
func (o *psObserver) refreshError(ctx context.Context, what string, err error) error {
	running, runErr := o.proc.IsRunningWithContext(ctx)
	if runErr == nil && !running {
		return ErrProcessGone
	}
	return fmt.Errorf("reading %s stats for pid %d failed: %w", what, o.proc.Pid, err)
}
