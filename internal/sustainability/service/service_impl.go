package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/sustainability/domain"
	"github.com/smallbiznis/greenpack/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Factors  *config.ImpactFactorsHolder `optional:"true"`
	AuditSvc auditdomain.Service         `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	factors  *config.ImpactFactorsHolder
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("sustainability.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		factors:  p.Factors,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.Metric, error) {
	day, err := time.Parse(domain.DateLayout, strings.TrimSpace(req.MetricDate))
	if err != nil {
		return domain.Metric{}, domain.ErrInvalidDate
	}
	if req.ProductsDelivered < 0 || req.CustomersServed < 0 || !validAmount(req.PlasticWasteSavedKg) {
		return domain.Metric{}, domain.ErrInvalidValue
	}

	// nil holder falls back to the default factors
	factors := s.factors.Get()

	carbon := req.PlasticWasteSavedKg * factors.CarbonKgPerPlasticKg
	if req.CarbonOffsetKg != nil {
		if !validAmount(*req.CarbonOffsetKg) {
			return domain.Metric{}, domain.ErrInvalidValue
		}
		carbon = *req.CarbonOffsetKg
	}
	trees := factors.TreesForCarbon(carbon)
	if req.TreesEquivalent != nil {
		if *req.TreesEquivalent < 0 {
			return domain.Metric{}, domain.ErrInvalidValue
		}
		trees = *req.TreesEquivalent
	}

	now := s.clock.Now()
	existing, err := s.repo.FindOne(ctx, nil, option.Where("metric_date = ?", day))
	if err != nil {
		return domain.Metric{}, err
	}

	if existing != nil {
		patch := map[string]any{
			"products_delivered":     req.ProductsDelivered,
			"plastic_waste_saved_kg": req.PlasticWasteSavedKg,
			"carbon_offset_kg":       carbon,
			"trees_equivalent":       trees,
			"customers_served":       req.CustomersServed,
			"updated_at":             now,
		}
		if err := s.repo.Update(ctx, existing.ID, patch); err != nil {
			return domain.Metric{}, err
		}
		existing.ProductsDelivered = req.ProductsDelivered
		existing.PlasticWasteSavedKg = req.PlasticWasteSavedKg
		existing.CarbonOffsetKg = carbon
		existing.TreesEquivalent = trees
		existing.CustomersServed = req.CustomersServed
		existing.UpdatedAt = now
		s.audit(ctx, existing, "sustainability.metric_updated")
		return *existing, nil
	}

	item := domain.Metric{
		ID:                  s.genID.Generate(),
		MetricDate:          day,
		ProductsDelivered:   req.ProductsDelivered,
		PlasticWasteSavedKg: req.PlasticWasteSavedKg,
		CarbonOffsetKg:      carbon,
		TreesEquivalent:     trees,
		CustomersServed:     req.CustomersServed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		return domain.Metric{}, err
	}
	s.audit(ctx, &item, "sustainability.metric_recorded")
	return item, nil
}

func (s *Service) List(ctx context.Context, from, to time.Time) ([]domain.Metric, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, domain.ErrInvalidRange
	}

	opts := []option.QueryOption{option.OrderBy("metric_date asc")}
	if !from.IsZero() {
		opts = append(opts, option.Where("metric_date >= ?", truncateDay(from)))
	}
	if !to.IsZero() {
		opts = append(opts, option.Where("metric_date <= ?", truncateDay(to)))
	}

	rows, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Metric, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	rows, err := s.repo.Find(ctx, nil, option.OrderBy("metric_date asc"))
	if err != nil {
		return domain.Summary{}, err
	}

	var summary domain.Summary
	for _, row := range rows {
		summary.Days++
		summary.ProductsDelivered += row.ProductsDelivered
		summary.PlasticWasteSavedKg += row.PlasticWasteSavedKg
		summary.CarbonOffsetKg += row.CarbonOffsetKg
		summary.TreesEquivalent += row.TreesEquivalent
		summary.CustomersServed += row.CustomersServed
		latest := row.MetricDate
		summary.LatestMetricDate = &latest
	}
	return summary, nil
}

func (s *Service) audit(ctx context.Context, item *domain.Metric, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := item.ID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "sustainability_metric", &targetID, map[string]any{
		"metric_date": item.MetricDate.Format(domain.DateLayout),
	}); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
