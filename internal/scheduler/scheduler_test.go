package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/clock"
	dashboarddomain "github.com/smallbiznis/greenpack/internal/dashboard/domain"
	obsmetrics "github.com/smallbiznis/greenpack/internal/observability/metrics"
	"github.com/smallbiznis/greenpack/pkg/db"
	"go.uber.org/zap"
)

func newTestScheduler(t *testing.T, registry *prometheus.Registry, now time.Time) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Scheduler{
		log:     zap.NewNop(),
		cfg:     DefaultConfig(),
		genID:   node,
		clock:   clock.NewFakeClock(now),
		metrics: obsmetrics.NewSchedulerMetrics(registry),
	}
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	s := newTestScheduler(t, registry, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	err := s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := getCounterValue(t, registry, "greenpack_scheduler_job_timeouts_total", map[string]string{"job": "timeout_job"}); got != 1 {
		t.Fatalf("expected timeout count 1, got %v", got)
	}
	errorLabels := map[string]string{
		"job":    "timeout_job",
		"reason": obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}
	if got := getCounterValue(t, registry, "greenpack_scheduler_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func TestRunJobWrapsFailures(t *testing.T) {
	s := newTestScheduler(t, prometheus.NewRegistry(), time.Now().UTC())
	boom := errors.New("boom")

	err := s.runJob(context.Background(), "failing_job", 1, time.Second, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestSessionCleanupJobRemovesStaleSessions(t *testing.T) {
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&authdomain.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	revokedLongAgo := now.Add(-48 * time.Hour)
	revokedRecently := now.Add(-time.Hour)
	sessions := []authdomain.Session{
		{ID: 1, UserID: 10, SessionTokenHash: "expired", ExpiresAt: now.Add(-72 * time.Hour), CreatedAt: now, LastSeenAt: now},
		{ID: 2, UserID: 10, SessionTokenHash: "live", ExpiresAt: now.Add(72 * time.Hour), CreatedAt: now, LastSeenAt: now},
		{ID: 3, UserID: 11, SessionTokenHash: "revoked-old", ExpiresAt: now.Add(72 * time.Hour), RevokedAt: &revokedLongAgo, CreatedAt: now, LastSeenAt: now},
		{ID: 4, UserID: 11, SessionTokenHash: "revoked-new", ExpiresAt: now.Add(72 * time.Hour), RevokedAt: &revokedRecently, CreatedAt: now, LastSeenAt: now},
	}
	if err := conn.Create(&sessions).Error; err != nil {
		t.Fatalf("seed sessions: %v", err)
	}

	s := newTestScheduler(t, prometheus.NewRegistry(), now)
	s.db = conn
	s.cfg.EnabledJobs = []string{JobSessionCleanup}

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	var remaining []authdomain.Session
	if err := conn.Order("id asc").Find(&remaining).Error; err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	if len(remaining) != 2 || remaining[0].ID != 2 || remaining[1].ID != 4 {
		t.Fatalf("expected sessions 2 and 4 to remain, got %+v", remaining)
	}
}

type fakeDashboard struct {
	dashboarddomain.Service
	calls int
}

func (f *fakeDashboard) AdminOverview(ctx context.Context) (dashboarddomain.AdminOverview, error) {
	f.calls++
	return dashboarddomain.AdminOverview{TotalProducts: 3}, nil
}

func TestDashboardGaugesJobRunsWhenEnabled(t *testing.T) {
	dash := &fakeDashboard{}
	s := newTestScheduler(t, prometheus.NewRegistry(), time.Now().UTC())
	s.dashboardSvc = dash
	s.cfg.EnabledJobs = []string{JobDashboardGauges}

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if dash.calls != 1 {
		t.Fatalf("expected one overview refresh, got %d", dash.calls)
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.Counter == nil {
				t.Fatalf("metric %s is not a counter", name)
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
