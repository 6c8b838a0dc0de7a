package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// SessionCleanupJob deletes sessions that expired or were revoked longer ago
// than the retention window, one batch per pass.
func (s *Scheduler) SessionCleanupJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	cutoff := s.clock.Now().Add(-s.cfg.SessionRetention)

	res := s.db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE id IN (
			SELECT id FROM sessions
			WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)
			LIMIT ?
		)`,
		cutoff, cutoff, s.cfg.BatchSize,
	)
	if res.Error != nil {
		return res.Error
	}
	run.AddProcessed(int(res.RowsAffected))

	if res.RowsAffected > 0 && s.auditSvc != nil {
		actorID := "scheduler"
		_ = s.auditSvc.AuditLog(ctx, "system", &actorID, "session.purged", "session", nil, map[string]any{
			"count":  res.RowsAffected,
			"cutoff": cutoff,
		})
	}
	return nil
}

// DashboardGaugesJob recomputes the admin overview so the Prometheus gauges
// stay current between dashboard views.
func (s *Scheduler) DashboardGaugesJob(ctx context.Context) error {
	overview, err := s.dashboardSvc.AdminOverview(ctx)
	if err != nil {
		return err
	}
	jobRunFromContext(ctx).AddProcessed(1)
	s.logger(ctx).Debug("dashboard gauges refreshed",
		zap.Int64("total_products", overview.TotalProducts),
		zap.Int64("total_inquiries", overview.TotalInquiries),
		zap.Int64("active_subscribers", overview.ActiveSubscribers),
	)
	return nil
}
