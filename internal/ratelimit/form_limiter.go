package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/observability/metrics"
	"go.uber.org/zap"
)

const keyFormSubmit = "forms:submit:%s:%s"

type bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error)
}

// FormLimiter throttles public form submissions per endpoint and client.
type FormLimiter struct {
	enabled bool
	bucket  bucket
	rate    float64
	burst   int
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewFormLimiter(cfg config.Config, client *redis.Client, log *zap.Logger, m *metrics.Metrics) *FormLimiter {
	limitCfg := cfg.RateLimit
	logger := log.Named("ratelimit.forms")

	rate := float64(limitCfg.FormsPerSecond)
	burst := limitCfg.FormsBurst
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 5
	}

	var b bucket
	if client != nil {
		b = NewTokenBucket(client)
		logger.Info("form rate limiting backed by redis")
	} else {
		b = NewMemoryBucket()
		logger.Info("form rate limiting backed by process memory")
	}

	return &FormLimiter{
		enabled: limitCfg.Enabled,
		bucket:  b,
		rate:    rate,
		burst:   burst,
		log:     logger,
		metrics: m,
	}
}

func (l *FormLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow fails open when the backing store errors.
func (l *FormLimiter) Allow(ctx context.Context, endpoint, client string) *RateLimitResult {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}
	}

	key := fmt.Sprintf(keyFormSubmit, strings.TrimSpace(endpoint), strings.TrimSpace(client))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable", zap.String("endpoint", endpoint), zap.Error(err))
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
		return &RateLimitResult{Allowed: true, Limit: l.burst}
	}

	if res.Allowed {
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	} else {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "burst_exhausted")
	}
	return res
}
