package middleware

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// ClientLimiter hands out one token bucket per client IP. Buckets idle for
// longer than the sweep window are dropped.
type ClientLimiter struct {
	limiters map[string]*clientEntry
	mu       sync.RWMutex
	rps      float64
	burst    int
	now      func() time.Time
}

func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		rps:      rps,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *ClientLimiter) GetLimiter(client string) *rate.Limiter {
	now := l.now().UnixNano()

	l.mu.RLock()
	entry, exists := l.limiters[client]
	l.mu.RUnlock()

	if exists {
		entry.lastSeen.Store(now)
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, exists = l.limiters[client]; !exists {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[client] = entry
	}
	entry.lastSeen.Store(now)
	return entry.limiter
}

// Sweep drops buckets not used within idle and returns how many were removed.
func (l *ClientLimiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for client, entry := range l.limiters {
		if entry.lastSeen.Load() < cutoff {
			delete(l.limiters, client)
			removed++
		}
	}
	return removed
}

func (l *ClientLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// idle window disables sweeping.
func (l *ClientLimiter) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	if idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idle)
		}
	}
}

// RateLimit rejects requests over the client's budget with 429. A
// non-positive rate disables limiting. Clients are keyed by c.ClientIP(),
// so forwarding headers only count from the engine's trusted proxies.
func RateLimit(l *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.rps <= 0 {
			c.Next()
			return
		}
		if !l.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}
