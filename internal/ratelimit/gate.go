// Package ratelimit paces outbound requests to upstream registries.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Gate provides per-provider request pacing using token buckets. Each
// configured provider gets its own limiter with a burst of 1, so calls
// through the gate are spaced evenly rather than clustered. Providers
// without a configured rate pass through unthrottled.
//
// A single Gate is shared by every provider instance and is safe for
// concurrent use. It is the only state that outlives a request.
type Gate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewGate creates an empty Gate. Rates are registered per provider key
// with SetRate.
func NewGate() *Gate {
	return &Gate{
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetRate registers a pacing rate, in requests per second, for a key.
// A non-positive rate removes the limit.
func (g *Gate) SetRate(key string, rps float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rps <= 0 {
		delete(g.limiters, key)
		return
	}
	g.limiters[key] = rate.NewLimiter(rate.Limit(rps), 1)
}

// Wait blocks until the rate limit allows a request under the given key.
// Keys without a registered rate return immediately. Returns an error if
// the context is canceled before the wait completes.
func (g *Gate) Wait(ctx context.Context, key string) error {
	g.mu.Lock()
	limiter, ok := g.limiters[key]
	g.mu.Unlock()

	if !ok {
		return ctx.Err()
	}
	return limiter.Wait(ctx)
}
