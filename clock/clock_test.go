package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpochElapsedIsMonotonic(t *testing.T) {
	epoch := NewEpoch()
	first := epoch.Elapsed()
	time.Sleep(2 * time.Millisecond)
	second := epoch.Elapsed()

	assert.GreaterOrEqual(t, first, time.Duration(0))
	assert.Greater(t, second, first)
}

func TestEpochSince(t *testing.T) {
	epoch := NewEpoch()
	now := time.Now()
	assert.GreaterOrEqual(t, epoch.Since(now), time.Duration(0))
	assert.LessOrEqual(t, epoch.Since(now), epoch.Elapsed())
}
