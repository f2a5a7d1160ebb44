package clock

import "time"

// Epoch is the single reference instant captured at program start. Every timestamp recorded by the harness is a
// duration from it, so all benchmark timelines share one origin.
type Epoch struct {
	start time.Time
}

func NewEpoch() Epoch {
	return Epoch{start: time.Now()}
}

// Elapsed returns the monotonic time since the epoch.
func (e Epoch) Elapsed() time.Duration {
	return time.Since(e.start)
}

// Since returns the duration between the epoch and t. t must carry a monotonic reading (i.e. come from time.Now).
func (e Epoch) Since(t time.Time) time.Duration {
	return t.Sub(e.start)
}
