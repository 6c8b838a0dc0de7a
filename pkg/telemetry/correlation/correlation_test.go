package correlation

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestEnsureCorrelationID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	if _, err := ulid.Parse(cid); err != nil {
		t.Fatalf("expected ulid, got %q: %v", cid, err)
	}
	if ExtractCorrelationID(ctx) != cid {
		t.Fatalf("expected id stored on context")
	}

	again, same := EnsureCorrelationID(ctx)
	if same != cid || ExtractCorrelationID(again) != cid {
		t.Fatalf("expected existing id to be kept")
	}
}
