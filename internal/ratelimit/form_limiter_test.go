package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/greenpack/internal/config"
	"go.uber.org/zap"
)

func TestMemoryBucketRefills(t *testing.T) {
	b := NewMemoryBucket()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := b.Allow(ctx, "k", 1, 2)
		if err != nil || !res.Allowed {
			t.Fatalf("request %d should pass: %+v %v", i, res, err)
		}
	}

	res, err := b.Allow(ctx, "k", 1, 2)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("third request should be limited")
	}
	if res.RetryAfter != time.Second {
		t.Fatalf("unexpected retry after: %s", res.RetryAfter)
	}

	now = now.Add(time.Second)
	if res, _ := b.Allow(ctx, "k", 1, 2); !res.Allowed {
		t.Fatalf("request after refill should pass")
	}
}

func TestMemoryBucketKeysAreIndependent(t *testing.T) {
	b := NewMemoryBucket()
	ctx := context.Background()

	if res, _ := b.Allow(ctx, "a", 1, 1); !res.Allowed {
		t.Fatalf("first a should pass")
	}
	if res, _ := b.Allow(ctx, "a", 1, 1); res.Allowed {
		t.Fatalf("second a should be limited")
	}
	if res, _ := b.Allow(ctx, "b", 1, 1); !res.Allowed {
		t.Fatalf("b should not share a's bucket")
	}
}

func TestMemoryBucketRejectsBadArgs(t *testing.T) {
	b := NewMemoryBucket()
	if _, err := b.Allow(context.Background(), "", 1, 1); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := b.Allow(context.Background(), "k", 0, 1); err == nil {
		t.Fatalf("expected error for zero rate")
	}
}

func TestFormLimiterDisabledAllowsAll(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: false, FormsPerSecond: 1, FormsBurst: 1}}
	l := NewFormLimiter(cfg, nil, zap.NewNop(), nil)

	for i := 0; i < 5; i++ {
		if res := l.Allow(context.Background(), "inquiries", "10.0.0.1"); !res.Allowed {
			t.Fatalf("disabled limiter should allow")
		}
	}
}

func TestFormLimiterUsesMemoryFallback(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, FormsPerSecond: 1, FormsBurst: 1}}
	l := NewFormLimiter(cfg, nil, zap.NewNop(), nil)
	ctx := context.Background()

	if res := l.Allow(ctx, "newsletter", "10.0.0.1"); !res.Allowed {
		t.Fatalf("first submission should pass")
	}
	if res := l.Allow(ctx, "newsletter", "10.0.0.1"); res.Allowed {
		t.Fatalf("second submission should be limited")
	}
	if res := l.Allow(ctx, "inquiries", "10.0.0.1"); !res.Allowed {
		t.Fatalf("other endpoint should have its own bucket")
	}
}
