package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Wait(t *testing.T) {
	t.Run("unregistered key passes through", func(t *testing.T) {
		gate := NewGate()

		start := time.Now()
		err := gate.Wait(context.Background(), "pypi")
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("registered key is paced", func(t *testing.T) {
		gate := NewGate()
		gate.SetRate("crates", 100) // 10ms between requests

		start := time.Now()
		for i := 0; i < 4; i++ {
			require.NoError(t, gate.Wait(context.Background(), "crates"))
		}

		// First request is immediate, the remaining three are spaced
		assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	})

	t.Run("keys are paced independently", func(t *testing.T) {
		gate := NewGate()
		gate.SetRate("crates", 0.1) // one request per 10s

		require.NoError(t, gate.Wait(context.Background(), "crates"))

		// A different key is not held up by the crates limiter
		start := time.Now()
		require.NoError(t, gate.Wait(context.Background(), "npm"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("canceled context aborts the wait", func(t *testing.T) {
		gate := NewGate()
		gate.SetRate("crates", 0.1)

		// Drain the single burst token
		require.NoError(t, gate.Wait(context.Background(), "crates"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := gate.Wait(ctx, "crates")
		assert.Error(t, err)
	})

	t.Run("canceled context fails even without a limit", func(t *testing.T) {
		gate := NewGate()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, gate.Wait(ctx, "pypi"))
	})
}

func TestGate_SetRate(t *testing.T) {
	t.Run("non-positive rate removes the limit", func(t *testing.T) {
		gate := NewGate()
		gate.SetRate("crates", 0.1)
		gate.SetRate("crates", 0)

		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, gate.Wait(context.Background(), "crates"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}

func TestGate_ConcurrentUse(t *testing.T) {
	gate := NewGate()
	gate.SetRate("crates", 200)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, gate.Wait(context.Background(), "crates"))
		}()
	}
	wg.Wait()

	// Six requests at 200 rps leave at least 25ms of enforced spacing
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}
