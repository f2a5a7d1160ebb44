package benchmark

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Octogonapus/ForcPerf/clock"
	"github.com/Octogonapus/ForcPerf/report"
)

type exitNotifier interface {
	Exited() <-chan struct{}
}

// reconciler applies the compiler's markers to a benchmark. It owns the benchmark's phases and bytecode size while
// the benchmark runs.
type reconciler struct {
	epoch clock.Epoch
	b     *report.Benchmark
}

func newReconciler(epoch clock.Epoch, b *report.Benchmark) *reconciler {
	return &reconciler{epoch: epoch, b: b}
}

// apply interprets one line of compiler output.
func (r *reconciler) apply(line string) error {
	m, err := ParseMarker(line)
	if err != nil {
		return err
	}

	switch m.Kind {
	case MarkerStart:
		r.b.Phases = append(r.b.Phases, report.BenchmarkPhase{
			Name:      m.Name,
			StartTime: report.Duration(r.epoch.Elapsed()),
		})
	case MarkerStop:
		now := r.epoch.Elapsed()
		// Newest open phase with this name wins so nested phases of the same name close inside out.
		for i := len(r.b.Phases) - 1; i >= 0; i-- {
			phase := &r.b.Phases[i]
			if phase.Open() && phase.Name == m.Name {
				phase.EndTime = report.At(now)
				return nil
			}
		}
		return fmt.Errorf("%w: stop marker for phase %q has no matching open phase", ErrProtocolViolation, m.Name)
	case MarkerSize:
		if r.b.BytecodeSize != nil {
			slog.Warn("bytecode size reported more than once, keeping the last value",
				slog.String("name", r.b.Name), slog.Uint64("previous", *r.b.BytecodeSize), slog.Uint64("size", m.Size))
		}
		size := m.Size
		r.b.BytecodeSize = &size
	}
	return nil
}

// wait consumes lines until the child has exited and its output has been fully read. Once the child exits the
// sampler is stopped; output still open drainTimeout after the exit is abandoned (zero waits indefinitely).
func (r *reconciler) wait(child exitNotifier, lines <-chan string, stopSampler func(), drainTimeout time.Duration) error {
	exited := child.Exited()
	var drainDeadline <-chan time.Time

	for lines != nil || exited != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			err := r.apply(line)
			if err != nil {
				return err
			}
		case <-exited:
			exited = nil
			stopSampler()
			if lines != nil && drainTimeout > 0 {
				timer := time.NewTimer(drainTimeout)
				defer timer.Stop()
				drainDeadline = timer.C
			}
		case <-drainDeadline:
			slog.Warn("compiler output still open after exit, dropping the rest",
				slog.String("name", r.b.Name), slog.Duration("drainTimeout", drainTimeout))
			return nil
		}
	}
	return nil
}

func (r *reconciler) openPhases() []string {
	open := []string{}
	for _, p := range r.b.Phases {
		if p.Open() {
			open = append(open, p.Name)
		}
	}
	return open
}
