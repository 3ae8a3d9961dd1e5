package breaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestOutcomeWindow ring-buffer bookkeeping
func TestOutcomeWindow(t *testing.T) {
	t.Run("empty window", func(t *testing.T) {
		w := newOutcomeWindow(4)
		assert.Equal(t, 0, w.recorded())
		assert.Equal(t, 0.0, w.failureRate())
	})

	t.Run("partial fill", func(t *testing.T) {
		w := newOutcomeWindow(4)
		w.record(true)
		w.record(false)
		assert.Equal(t, 2, w.recorded())
		assert.Equal(t, 50.0, w.failureRate())
	})

	t.Run("eviction of oldest outcome", func(t *testing.T) {
		w := newOutcomeWindow(2)
		w.record(true)
		w.record(true)
		assert.Equal(t, 100.0, w.failureRate())

		// Two successes push both failures out
		w.record(false)
		w.record(false)
		assert.Equal(t, 2, w.recorded())
		assert.Equal(t, 0.0, w.failureRate())
	})

	t.Run("count capped at capacity", func(t *testing.T) {
		w := newOutcomeWindow(3)
		for i := 0; i < 10; i++ {
			w.record(i%2 == 0)
		}
		assert.Equal(t, 3, w.recorded())
	})

	t.Run("reset clears everything", func(t *testing.T) {
		w := newOutcomeWindow(4)
		w.record(true)
		w.record(true)
		w.reset()
		assert.Equal(t, 0, w.recorded())
		assert.Equal(t, 0.0, w.failureRate())
	})
}
