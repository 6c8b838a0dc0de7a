package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

type memoryState struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket applies the same refill rule as TokenBucket inside one process.
type MemoryBucket struct {
	mu      sync.Mutex
	buckets map[string]*memoryState
	now     func() time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		buckets: make(map[string]*memoryState),
		now:     time.Now,
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	if key == "" {
		return &RateLimitResult{Allowed: false}, errors.New("rate limiter key is empty")
	}
	if rate <= 0 || burst <= 0 {
		return &RateLimitResult{Allowed: false}, errors.New("rate limiter rate and burst must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	state, ok := m.buckets[key]
	if !ok {
		state = &memoryState{tokens: float64(burst), ts: now}
		m.buckets[key] = state
	} else {
		elapsed := now.Sub(state.ts).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		state.tokens = math.Min(float64(burst), state.tokens+elapsed*rate)
		state.ts = now
	}

	allowed := false
	if state.tokens >= 1 {
		allowed = true
		state.tokens--
	}

	retryAfter := time.Duration(0)
	if !allowed {
		retryAfter = time.Duration((1 - state.tokens) / rate * float64(time.Second))
	}

	m.evict(now, rate, burst)

	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  int(state.tokens),
		ResetTime:  now.Add(retryAfter),
		RetryAfter: retryAfter,
	}, nil
}

// evict drops buckets that have been idle long enough to be full again.
func (m *MemoryBucket) evict(now time.Time, rate float64, burst int) {
	if len(m.buckets) < 4096 {
		return
	}
	idle := defaultBucketTTL(rate, burst)
	for key, state := range m.buckets {
		if now.Sub(state.ts) > idle {
			delete(m.buckets, key)
		}
	}
}
