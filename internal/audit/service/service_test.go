package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	"github.com/smallbiznis/greenpack/internal/audit/repository"
	"github.com/smallbiznis/greenpack/internal/clock"
	obscontext "github.com/smallbiznis/greenpack/internal/observability/context"
	"github.com/smallbiznis/greenpack/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&auditdomain.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
	}).(*Service)
	return svc, fake
}

func TestAuditLogUsesContextActorAndClient(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithActor(context.Background(), "user", "42")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	ctx = obscontext.WithClient(ctx, obscontext.Client{IP: "10.0.0.1", UserAgent: "curl/8"})

	targetID := "77"
	err := svc.AuditLog(ctx, "", nil, "inquiry.status_updated", "inquiry", &targetID, map[string]any{
		"email":  "jane@example.com",
		"status": "quoted",
	})
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.AuditLogs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.AuditLogs))
	}

	entry := resp.AuditLogs[0]
	if entry.ActorType != "user" || entry.ActorID == nil || *entry.ActorID != "42" {
		t.Fatalf("unexpected actor: %s %v", entry.ActorType, entry.ActorID)
	}
	if entry.IPAddress == nil || *entry.IPAddress != "10.0.0.1" {
		t.Fatalf("unexpected ip: %v", entry.IPAddress)
	}
	if entry.Metadata["email"] != "j****@example.com" {
		t.Fatalf("email should be masked, got %v", entry.Metadata["email"])
	}
	if entry.Metadata["status"] != "quoted" {
		t.Fatalf("unexpected status: %v", entry.Metadata["status"])
	}
	if entry.Metadata["request_id"] != "req-1" {
		t.Fatalf("unexpected request id: %v", entry.Metadata["request_id"])
	}
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.AuditLog(context.Background(), "", nil, "seed.admin_created", "", nil, nil); err != nil {
		t.Fatalf("audit log: %v", err)
	}

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.AuditLogs[0].ActorType != string(auditdomain.ActorTypeSystem) {
		t.Fatalf("expected system actor, got %s", resp.AuditLogs[0].ActorType)
	}
	if resp.AuditLogs[0].TargetType != "unknown" {
		t.Fatalf("expected unknown target type, got %s", resp.AuditLogs[0].TargetType)
	}
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.AuditLog(context.Background(), "user", nil, "  ", "inquiry", nil, nil); err != auditdomain.ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.AuditLog(ctx, "system", nil, "product.created", "product", nil, nil); err != nil {
			t.Fatalf("audit log: %v", err)
		}
		fake.Advance(time.Minute)
	}

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.AuditLogs) != 2 || !first.HasMore || first.NextPageToken == "" {
		t.Fatalf("unexpected first page: %+v", first.PageInfo)
	}
	if !first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}

	req.PageToken = first.NextPageToken
	second, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second.AuditLogs) != 1 || second.HasMore {
		t.Fatalf("unexpected second page: %d %+v", len(second.AuditLogs), second.PageInfo)
	}
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "%%%"
	if _, err := svc.List(context.Background(), req); err != auditdomain.ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	if _, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end}); err != auditdomain.ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
