// Package ratelimit provides per-host token-bucket rate limiters.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter rate-limits requests per target host. Each host gets its own
// token bucket, created on first use.
type HostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter

	rps   rate.Limit
	burst int
}

// NewHostLimiter creates a limiter allowing rps requests per second per host.
// rps <= 0 disables limiting.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a token is available for host, or ctx is cancelled.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	if hl.rps <= 0 {
		return nil
	}
	if err := hl.limiter(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", host, err)
	}
	return nil
}

func (hl *HostLimiter) limiter(host string) *rate.Limiter {
	hl.mu.RLock()
	l, ok := hl.limiters[host]
	hl.mu.RUnlock()
	if ok {
		return l
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()
	if l, ok := hl.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(hl.rps, hl.burst)
	hl.limiters[host] = l
	return l
}
