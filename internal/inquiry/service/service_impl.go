package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/internal/observability/metrics"
	"github.com/smallbiznis/greenpack/internal/providers/email"
	"github.com/smallbiznis/greenpack/pkg/db/option"
	"github.com/smallbiznis/greenpack/pkg/db/pagination"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultRecentLimit = 10

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Users    authdomain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
	Email    email.Provider      `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type Service struct {
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	users          authdomain.Repository
	auditSvc       auditdomain.Service
	email          email.Provider
	metrics        *metrics.Metrics
	salesRecipient string
}

func New(p Params) domain.Service {
	return &Service{
		log:            p.Log.Named("inquiry.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		users:          p.Users,
		auditSvc:       p.AuditSvc,
		email:          p.Email,
		metrics:        p.Metrics,
		salesRecipient: strings.TrimSpace(p.Cfg.Email.SalesRecipient),
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.Inquiry, error) {
	record, err := leadcapture.BuildRecord(leadcapture.KindInquiry, req.Fields, req.Session)
	if err != nil {
		s.metrics.RecordLeadRejected(ctx, string(leadcapture.KindInquiry), "validation")
		return domain.Inquiry{}, err
	}

	now := s.clock.Now()
	item := domain.Inquiry{
		ID:            s.genID.Generate(),
		UserID:        record.UserID,
		Name:          record.Name,
		Email:         record.Email,
		Phone:         record.Phone,
		ProductType:   record.ProductType,
		Message:       record.Message,
		AttachmentURL: record.AttachmentURL,
		Status:        domain.Status(record.Status),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, &item); err != nil {
		s.log.Error("failed to store inquiry", zap.Error(err))
		return domain.Inquiry{}, err
	}

	s.metrics.RecordLeadCaptured(ctx, string(leadcapture.KindInquiry))
	s.notifySales(ctx, item)
	return item, nil
}

// notifySales never fails the submission.
func (s *Service) notifySales(ctx context.Context, item domain.Inquiry) {
	if s.email == nil || s.salesRecipient == "" {
		return
	}
	err := s.email.SendTemplate(ctx, []string{s.salesRecipient}, email.TemplateInquiryReceived, map[string]interface{}{
		"subject":        "New inquiry from " + item.Name,
		"inquiry_id":     item.ID.String(),
		"name":           item.Name,
		"email":          item.Email,
		"phone":          item.Phone,
		"product_type":   item.ProductType,
		"message":        item.Message,
		"attachment_url": item.AttachmentURL,
	})
	if err != nil {
		s.log.Warn("sales notification failed", zap.String("inquiry_id", item.ID.String()), zap.Error(err))
	}
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.Inquiry, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidID
	}
	items, err := s.repo.Find(ctx, &domain.Inquiry{UserID: &userID}, option.NewestFirst())
	if err != nil {
		return nil, err
	}
	return flatten(items), nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		if _, err := pagination.DecodeCursor(token); err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
	}

	size := req.Pagination.Size()
	items, err := s.repo.Find(ctx, &domain.Inquiry{Status: req.Status},
		option.NewestFirst(),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, size, func(item *domain.Inquiry) string {
		return pagination.CursorFor(item.ID.String(), item.CreatedAt)
	})

	return domain.ListResponse{PageInfo: pageInfo, Inquiries: flatten(items)}, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	items, err := s.repo.Find(ctx, nil, option.NewestFirst(), option.Limit(limit))
	if err != nil {
		return nil, err
	}
	return flatten(items), nil
}

func (s *Service) Count(ctx context.Context, filter domain.CountFilter) (int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return 0, domain.ErrInvalidStatus
	}
	return s.repo.Count(ctx, &domain.Inquiry{Status: filter.Status, UserID: filter.UserID})
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.Status) (domain.Inquiry, error) {
	if id == 0 {
		return domain.Inquiry{}, domain.ErrInvalidID
	}
	status = domain.Status(strings.TrimSpace(string(status)))
	if !status.Valid() {
		return domain.Inquiry{}, domain.ErrInvalidStatus
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return domain.Inquiry{}, err
	}

	now := s.clock.Now()
	if err := s.update(ctx, id, map[string]any{"status": status, "updated_at": now}); err != nil {
		return domain.Inquiry{}, err
	}

	targetID := id.String()
	s.audit(ctx, "inquiry.status_updated", &targetID, map[string]any{
		"from": string(current.Status),
		"to":   string(status),
	})

	current.Status = status
	current.UpdatedAt = now
	return current, nil
}

func (s *Service) Assign(ctx context.Context, id snowflake.ID, assigneeID snowflake.ID) (domain.Inquiry, error) {
	if id == 0 {
		return domain.Inquiry{}, domain.ErrInvalidID
	}
	if assigneeID == 0 {
		return domain.Inquiry{}, domain.ErrInvalidAssignee
	}

	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, authdomain.ErrUserNotFound) {
			return domain.Inquiry{}, domain.ErrInvalidAssignee
		}
		return domain.Inquiry{}, err
	}
	if !assignee.Role.Staff() {
		return domain.Inquiry{}, domain.ErrInvalidAssignee
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return domain.Inquiry{}, err
	}

	now := s.clock.Now()
	if err := s.update(ctx, id, map[string]any{"assigned_to": assigneeID, "updated_at": now}); err != nil {
		return domain.Inquiry{}, err
	}

	targetID := id.String()
	s.audit(ctx, "inquiry.assigned", &targetID, map[string]any{
		"assignee_id": assigneeID.String(),
	})

	current.AssignedTo = &assigneeID
	current.UpdatedAt = now
	return current, nil
}

func (s *Service) get(ctx context.Context, id snowflake.ID) (domain.Inquiry, error) {
	item, err := s.repo.FindOne(ctx, &domain.Inquiry{ID: id})
	if err != nil {
		return domain.Inquiry{}, err
	}
	if item == nil {
		return domain.Inquiry{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) update(ctx context.Context, id snowflake.ID, patch map[string]any) error {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) audit(ctx context.Context, action string, targetID *string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "inquiry", targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func flatten(items []*domain.Inquiry) []domain.Inquiry {
	out := make([]domain.Inquiry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}

