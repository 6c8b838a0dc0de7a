package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/internal/dashboard/domain"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/observability/metrics"
	productdomain "github.com/smallbiznis/greenpack/internal/product/domain"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Inquiries   inquirydomain.Service
	Subscribers subscriberdomain.Service
	Products    productdomain.Service
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	inquiries   inquirydomain.Service
	subscribers subscriberdomain.Service
	products    productdomain.Service
	gauges      *metrics.HTTPMetrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("dashboard.service"),
		inquiries:   p.Inquiries,
		subscribers: p.Subscribers,
		products:    p.Products,
		gauges:      p.HTTPMetrics,
	}
}

func (s *Service) AdminOverview(ctx context.Context) (domain.AdminOverview, error) {
	products, err := s.products.Count(ctx)
	if err != nil {
		return domain.AdminOverview{}, fmt.Errorf("count products: %w", err)
	}
	total, err := s.inquiries.Count(ctx, inquirydomain.CountFilter{})
	if err != nil {
		return domain.AdminOverview{}, fmt.Errorf("count inquiries: %w", err)
	}
	fresh, err := s.inquiries.Count(ctx, inquirydomain.CountFilter{Status: inquirydomain.StatusNew})
	if err != nil {
		return domain.AdminOverview{}, fmt.Errorf("count new inquiries: %w", err)
	}
	active, err := s.subscribers.CountActive(ctx)
	if err != nil {
		return domain.AdminOverview{}, fmt.Errorf("count subscribers: %w", err)
	}
	recent, err := s.inquiries.ListRecent(ctx, domain.RecentInquiryLimit)
	if err != nil {
		return domain.AdminOverview{}, fmt.Errorf("recent inquiries: %w", err)
	}

	s.gauges.SetProducts(products)
	s.gauges.SetInquiries(string(inquirydomain.StatusNew), fresh)
	s.gauges.SetActiveSubscribers(active)

	return domain.AdminOverview{
		TotalProducts:     products,
		TotalInquiries:    total,
		NewInquiries:      fresh,
		ActiveSubscribers: active,
		RecentInquiries:   recent,
	}, nil
}

func (s *Service) CustomerOverview(ctx context.Context, userID snowflake.ID) (domain.CustomerOverview, error) {
	if userID == 0 {
		return domain.CustomerOverview{}, domain.ErrInvalidUser
	}

	items, err := s.inquiries.ListByUser(ctx, userID)
	if err != nil {
		return domain.CustomerOverview{}, err
	}

	byStatus := make(map[string]int64, len(inquirydomain.Statuses))
	for _, status := range inquirydomain.Statuses {
		byStatus[string(status)] = 0
	}
	for _, item := range items {
		byStatus[string(item.Status)]++
	}

	return domain.CustomerOverview{
		TotalInquiries: int64(len(items)),
		ByStatus:       byStatus,
		Inquiries:      items,
	}, nil
}
