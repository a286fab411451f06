package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vagahub/engine/internal/telemetry"
)

// HostLimiter spaces requests per host so that consecutive fetches against
// the same site are at least MinInterval apart. Different hosts never block
// each other.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewHostLimiter builds a limiter with the given minimum per-host spacing.
// A non-positive interval disables the limiter.
func NewHostLimiter(minInterval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: minInterval,
	}
}

// Wait blocks until the host of rawURL may be contacted again, respecting
// the context.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if l.interval <= 0 {
		return nil
	}
	host := hostOf(rawURL)

	l.mu.Lock()
	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		telemetry.ObserveRateLimitDelay(host, delay)
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
