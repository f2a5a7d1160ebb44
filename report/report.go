package report

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Duration is an offset from the run's epoch. It serializes as {"secs": N, "nanos": N}.
type Duration time.Duration

type wireDuration struct {
	Secs  uint64 `json:"secs"`
	Nanos uint32 `json:"nanos"`
}

// At returns a pointer to d as a Duration, for the optional timestamp fields.
func At(d time.Duration) *Duration {
	out := Duration(d)
	return &out
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if d < 0 {
		return nil, fmt.Errorf("negative duration %s can't be serialized", time.Duration(d))
	}
	return json.Marshal(wireDuration{
		Secs:  uint64(time.Duration(d) / time.Second),
		Nanos: uint32(time.Duration(d) % time.Second),
	})
}

func (d *Duration) UnmarshalJSON(buf []byte) error {
	w := wireDuration{}
	if err := json.Unmarshal(buf, &w); err != nil {
		return err
	}
	if w.Nanos >= uint32(time.Second) {
		return fmt.Errorf("duration nanos out of range: %d", w.Nanos)
	}
	*d = Duration(time.Duration(w.Secs)*time.Second + time.Duration(w.Nanos))
	return nil
}

// BenchmarkPhase is a named sub-interval of a benchmark delimited by start/stop markers from the compiler.
type BenchmarkPhase struct {
	Name      string    `json:"name"`
	StartTime Duration  `json:"start_time"`
	EndTime   *Duration `json:"end_time"` // nil while the phase is open
}

func (p *BenchmarkPhase) Open() bool {
	return p.EndTime == nil
}

// BenchmarkFrame is one sample of the compiler process's resource usage.
type BenchmarkFrame struct {
	Timestamp Duration `json:"timestamp"`
	// OS-reported CPU percentage divided by the number of logical CPUs.
	CPUUsage              float32 `json:"cpu_usage"`
	MemoryUsage           uint64  `json:"memory_usage"`
	VirtualMemoryUsage    uint64  `json:"virtual_memory_usage"`
	DiskTotalWrittenBytes uint64  `json:"disk_total_written_bytes"`
	DiskWrittenBytes      uint64  `json:"disk_written_bytes"` // since the previous frame
	DiskTotalReadBytes    uint64  `json:"disk_total_read_bytes"`
	DiskReadBytes         uint64  `json:"disk_read_bytes"` // since the previous frame
}

// FrameLog is the frame sequence shared between a benchmark and its sampler. The zero value is ready to use.
type FrameLog struct {
	mu     sync.Mutex
	frames []BenchmarkFrame
}

func (l *FrameLog) Append(f BenchmarkFrame) {
	l.mu.Lock()
	l.frames = append(l.frames, f)
	l.mu.Unlock()
}

func (l *FrameLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// Snapshot returns a copy of the frames recorded so far.
func (l *FrameLog) Snapshot() []BenchmarkFrame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]BenchmarkFrame, len(l.frames))
	copy(out, l.frames)
	return out
}

func (l *FrameLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Snapshot())
}

func (l *FrameLog) UnmarshalJSON(buf []byte) error {
	frames := []BenchmarkFrame{}
	if err := json.Unmarshal(buf, &frames); err != nil {
		return err
	}
	l.mu.Lock()
	l.frames = frames
	l.mu.Unlock()
	return nil
}

// Benchmark is the record of one compiler run. It is mutated only by its runner (and its sampler, through Frames)
// and is immutable once the runner returns it.
type Benchmark struct {
	Name         string           `json:"name"`
	Path         string           `json:"path"`
	StartTime    *Duration        `json:"start_time"`
	EndTime      *Duration        `json:"end_time"`
	BytecodeSize *uint64          `json:"bytecode_size"`
	Phases       []BenchmarkPhase `json:"phases"`
	Frames       FrameLog         `json:"frames"`
}

func NewBenchmark(name, path string) *Benchmark {
	return &Benchmark{Name: name, Path: path, Phases: []BenchmarkPhase{}}
}

// TotalTime is the wall time of the benchmark, or zero if it never finished.
func (b *Benchmark) TotalTime() time.Duration {
	if b.StartTime == nil || b.EndTime == nil {
		return 0
	}
	return b.EndTime.Std() - b.StartTime.Std()
}

// Report is the aggregate written to disk after a run.
type Report struct {
	SystemSpecs     *SystemSpecs `json:"system_specs"`
	CompilerVersion string       `json:"compiler_version,omitempty"`
	StartTime       *Duration    `json:"start_time"`
	EndTime         *Duration    `json:"end_time"`
	Benchmarks      []*Benchmark `json:"benchmarks"`
}
