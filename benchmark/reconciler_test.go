package benchmark

import (
	"testing"
	"time"

	"github.com/Octogonapus/ForcPerf/clock"
	"github.com/Octogonapus/ForcPerf/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChild struct {
	exited chan struct{}
}

func newFakeChild() *fakeChild {
	return &fakeChild{exited: make(chan struct{})}
}

func (c *fakeChild) Exited() <-chan struct{} {
	return c.exited
}

func applyAll(t *testing.T, r *reconciler, lines ...string) {
	t.Helper()
	for _, line := range lines {
		require.NoError(t, r.apply(line))
	}
}

func TestReconcilerSinglePhase(t *testing.T) {
	b := report.NewBenchmark("single", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	applyAll(t, r, "/forc-perf start parse", "/forc-perf stop parse", "/forc-perf size 1234")

	require.Len(t, b.Phases, 1)
	assert.Equal(t, "parse", b.Phases[0].Name)
	require.NotNil(t, b.Phases[0].EndTime)
	assert.LessOrEqual(t, b.Phases[0].StartTime, *b.Phases[0].EndTime)
	require.NotNil(t, b.BytecodeSize)
	assert.Equal(t, uint64(1234), *b.BytecodeSize)
}

func TestReconcilerSequentialPhases(t *testing.T) {
	b := report.NewBenchmark("seq", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	applyAll(t, r, "/forc-perf start A", "/forc-perf stop A", "/forc-perf start B", "/forc-perf stop B")

	require.Len(t, b.Phases, 2)
	assert.Equal(t, "A", b.Phases[0].Name)
	assert.Equal(t, "B", b.Phases[1].Name)
	assert.LessOrEqual(t, *b.Phases[0].EndTime, b.Phases[1].StartTime)
	assert.Empty(t, r.openPhases())
}

func TestReconcilerIgnoresNoise(t *testing.T) {
	b := report.NewBenchmark("noise", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	applyAll(t, r, "  /forc-perf start parse", "hello world", "   Compiling library core", "/forc-perf stop parse")

	require.Len(t, b.Phases, 1)
	assert.NotNil(t, b.Phases[0].EndTime)
	assert.Nil(t, b.BytecodeSize)
}

func TestReconcilerStopMatchesNewestOpenPhase(t *testing.T) {
	b := report.NewBenchmark("nested", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	applyAll(t, r,
		"/forc-perf start compile",
		"/forc-perf start compile",
		"/forc-perf start inner",
		"/forc-perf stop compile",
	)
	assert.Nil(t, b.Phases[0].EndTime)
	assert.NotNil(t, b.Phases[1].EndTime)
	assert.Nil(t, b.Phases[2].EndTime)

	applyAll(t, r, "/forc-perf stop compile")
	assert.NotNil(t, b.Phases[0].EndTime)
	assert.Equal(t, []string{"inner"}, r.openPhases())
}

func TestReconcilerStopWithoutOpenPhase(t *testing.T) {
	b := report.NewBenchmark("bad", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	assert.ErrorIs(t, r.apply("/forc-perf stop parse"), ErrProtocolViolation)

	applyAll(t, r, "/forc-perf start parse", "/forc-perf stop parse")
	assert.ErrorIs(t, r.apply("/forc-perf stop parse"), ErrProtocolViolation, "a closed phase can't be stopped twice")
}

func TestReconcilerBadSize(t *testing.T) {
	r := newReconciler(clock.NewEpoch(), report.NewBenchmark("bad", "/p"))
	assert.ErrorIs(t, r.apply("/forc-perf size lots"), ErrProtocolViolation)
}

func TestReconcilerLastSizeWins(t *testing.T) {
	b := report.NewBenchmark("size", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	applyAll(t, r, "/forc-perf size 10", "/forc-perf size 0")
	require.NotNil(t, b.BytecodeSize)
	assert.Equal(t, uint64(0), *b.BytecodeSize)
}

func TestWaitDrainsLinesAfterExit(t *testing.T) {
	b := report.NewBenchmark("drain", "/p")
	r := newReconciler(clock.NewEpoch(), b)
	child := newFakeChild()
	lines := make(chan string, 4)

	// The child exits before any of its output has been consumed.
	close(child.exited)
	lines <- "/forc-perf start parse"
	lines <- "/forc-perf stop parse"
	lines <- "/forc-perf size 1234"
	close(lines)

	samplerStopped := false
	err := r.wait(child, lines, func() { samplerStopped = true }, time.Second)
	require.NoError(t, err)
	assert.True(t, samplerStopped)
	require.Len(t, b.Phases, 1)
	require.NotNil(t, b.BytecodeSize)
	assert.Equal(t, uint64(1234), *b.BytecodeSize)
}

func TestWaitWaitsForExitAfterEndOfStream(t *testing.T) {
	r := newReconciler(clock.NewEpoch(), report.NewBenchmark("eos", "/p"))
	child := newFakeChild()
	lines := make(chan string)
	close(lines)

	done := make(chan error)
	go func() { done <- r.wait(child, lines, func() {}, time.Second) }()

	select {
	case <-done:
		t.Fatal("wait returned before the child exited")
	case <-time.After(50 * time.Millisecond):
	}
	close(child.exited)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after exit")
	}
}

func TestWaitGivesUpOnOpenOutput(t *testing.T) {
	r := newReconciler(clock.NewEpoch(), report.NewBenchmark("stuck", "/p"))
	child := newFakeChild()
	close(child.exited)
	lines := make(chan string) // never closed, as if a grandchild kept stdout open

	start := time.Now()
	err := r.wait(child, lines, func() {}, 50*time.Millisecond)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitReturnsProtocolViolation(t *testing.T) {
	r := newReconciler(clock.NewEpoch(), report.NewBenchmark("bad", "/p"))
	lines := make(chan string, 1)
	lines <- "/forc-perf stop parse"

	err := r.wait(newFakeChild(), lines, func() {}, time.Second)
	assert.ErrorIs(t, err, ErrProtocolViolation)
}
