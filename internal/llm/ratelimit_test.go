package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst then refuse", func(t *testing.T) {
		rl := newRateLimiter(5)

		for i := 0; i < 5; i++ {
			assert.True(t, rl.tryAcquire(), "Expected tryAcquire to succeed for attempt %d", i+1)
		}
		assert.False(t, rl.tryAcquire(), "Expected tryAcquire to fail after tokens exhausted")
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter canceled")
	})

	t.Run("default rate limit", func(t *testing.T) {
		rl := newRateLimiter(0)
		for i := 0; i < 50; i++ {
			require.True(t, rl.tryAcquire(), "Expected default rate limit to allow many requests")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl := newRateLimiter(100)
		ctx := context.Background()

		var (
			mu       sync.Mutex
			acquired int
			wg       sync.WaitGroup
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					if err := rl.wait(ctx); err == nil {
						mu.Lock()
						acquired++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, acquired)
	})
}
