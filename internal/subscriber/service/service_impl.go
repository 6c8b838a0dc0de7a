package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/internal/observability/metrics"
	"github.com/smallbiznis/greenpack/internal/providers/email"
	"github.com/smallbiznis/greenpack/internal/subscriber/domain"
	"github.com/smallbiznis/greenpack/pkg/db"
	"github.com/smallbiznis/greenpack/pkg/db/option"
	"github.com/smallbiznis/greenpack/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Email   email.Provider   `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	email   email.Provider
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("subscriber.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		email:   p.Email,
		metrics: p.Metrics,
	}
}

func (s *Service) Subscribe(ctx context.Context, req domain.SubscribeRequest) (domain.Subscriber, error) {
	if req.Kind != leadcapture.KindNewsletter && req.Kind != leadcapture.KindCommunity {
		return domain.Subscriber{}, domain.ErrInvalidKind
	}

	record, err := leadcapture.BuildRecord(req.Kind, req.Fields, req.Session)
	if err != nil {
		s.metrics.RecordLeadRejected(ctx, string(req.Kind), "validation")
		return domain.Subscriber{}, err
	}

	address := normalizeEmail(record.Email)
	existing, err := s.repo.FindOne(ctx, nil, option.Where("email = ?", address))
	if err != nil {
		return domain.Subscriber{}, err
	}

	now := s.clock.Now()
	if existing != nil {
		if existing.Subscribed {
			s.metrics.RecordLeadRejected(ctx, string(req.Kind), "duplicate")
			return domain.Subscriber{}, domain.ErrAlreadySubscribed
		}
		patch := map[string]any{
			"subscribed":      true,
			"subscribed_at":   now,
			"unsubscribed_at": nil,
			"source":          domain.Source(req.Kind),
			"updated_at":      now,
		}
		if record.Name != "" {
			patch["name"] = record.Name
		}
		if err := s.repo.Update(ctx, existing.ID, patch); err != nil {
			return domain.Subscriber{}, err
		}
		existing.Subscribed = true
		existing.SubscribedAt = now
		existing.UnsubscribedAt = nil
		existing.Source = domain.Source(req.Kind)
		existing.UpdatedAt = now
		if record.Name != "" {
			existing.Name = record.Name
		}
		s.metrics.RecordLeadCaptured(ctx, string(req.Kind))
		s.welcome(ctx, *existing)
		return *existing, nil
	}

	item := domain.Subscriber{
		ID:           s.genID.Generate(),
		Email:        address,
		Name:         record.Name,
		Source:       domain.Source(req.Kind),
		UserID:       record.UserID,
		Subscribed:   true,
		SubscribedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		// lost a race with a concurrent signup for the same address
		if db.IsDuplicateKeyErr(err) {
			return domain.Subscriber{}, domain.ErrAlreadySubscribed
		}
		return domain.Subscriber{}, err
	}

	s.metrics.RecordLeadCaptured(ctx, string(req.Kind))
	s.welcome(ctx, item)
	return item, nil
}

func (s *Service) welcome(ctx context.Context, item domain.Subscriber) {
	if s.email == nil {
		return
	}
	err := s.email.SendTemplate(ctx, []string{item.Email}, email.TemplateWelcome, map[string]interface{}{
		"name":   item.Name,
		"source": string(item.Source),
	})
	if err != nil {
		s.log.Warn("welcome email failed", zap.String("subscriber_id", item.ID.String()), zap.Error(err))
	}
}

func (s *Service) Unsubscribe(ctx context.Context, rawEmail string) error {
	address := normalizeEmail(rawEmail)
	if address == "" {
		return domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindOne(ctx, nil, option.Where("email = ?", address))
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	if !existing.Subscribed {
		return nil
	}

	now := s.clock.Now()
	return s.repo.Update(ctx, existing.ID, map[string]any{
		"subscribed":      false,
		"unsubscribed_at": now,
		"updated_at":      now,
	})
}

func (s *Service) CountActive(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, nil, option.Where("subscribed = ?", true))
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if token := strings.TrimSpace(req.PageToken); token != "" {
		if _, err := pagination.DecodeCursor(token); err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
	}

	opts := []option.QueryOption{option.NewestFirst(), option.ApplyPagination(req.Pagination)}
	if req.ActiveOnly {
		opts = append(opts, option.Where("subscribed = ?", true))
	}

	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, req.Pagination.Size(), func(item *domain.Subscriber) string {
		return pagination.CursorFor(item.ID.String(), item.CreatedAt)
	})

	out := make([]domain.Subscriber, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return domain.ListResponse{PageInfo: pageInfo, Subscribers: out}, nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
