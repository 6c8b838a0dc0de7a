package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	"github.com/smallbiznis/greenpack/internal/blog/domain"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/pkg/db/option"
	"github.com/smallbiznis/greenpack/pkg/db/pagination"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("blog.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) ListPublished(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.PageToken != "" {
		if _, err := pagination.DecodeCursor(req.PageToken); err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
	}

	rows, err := s.repo.Find(ctx, &domain.Post{Published: true},
		option.ApplyPagination(req.Pagination),
		option.NewestFirst(),
	)
	if err != nil {
		return domain.ListResponse{}, err
	}

	page, info := pagination.Trim(rows, req.Size(), func(p *domain.Post) string {
		return pagination.CursorFor(p.ID.String(), p.CreatedAt)
	})

	posts := make([]domain.Post, 0, len(page))
	for _, p := range page {
		posts = append(posts, *p)
	}
	return domain.ListResponse{PageInfo: info, Posts: posts}, nil
}

func (s *Service) GetBySlug(ctx context.Context, value string) (domain.PostView, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return domain.PostView{}, domain.ErrNotFound
	}

	post, err := s.repo.FindOne(ctx, &domain.Post{Slug: value, Published: true})
	if err != nil {
		return domain.PostView{}, err
	}
	if post == nil {
		return domain.PostView{}, domain.ErrNotFound
	}

	rendered, err := renderMarkdown(post.Content)
	if err != nil {
		return domain.PostView{}, fmt.Errorf("render post %s: %w", post.Slug, err)
	}
	return domain.PostView{Post: *post, ContentHTML: rendered}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Post{}, domain.ErrInvalidTitle
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return domain.Post{}, domain.ErrInvalidContent
	}

	var authorID *snowflake.ID
	if raw := strings.TrimSpace(req.AuthorID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.Post{}, domain.ErrInvalidAuthor
		}
		authorID = &id
	}

	postSlug, err := s.uniqueSlug(ctx, title)
	if err != nil {
		return domain.Post{}, err
	}

	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = deriveExcerpt(content)
	}

	tags := make([]string, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}

	now := s.clock.Now()
	post := domain.Post{
		ID:            s.genID.Generate(),
		AuthorID:      authorID,
		Title:         title,
		Slug:          postSlug,
		Content:       content,
		Excerpt:       excerpt,
		FeaturedImage: strings.TrimSpace(req.FeaturedImage),
		Tags:          tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &post); err != nil {
		return domain.Post{}, err
	}

	s.audit(ctx, "blog.post_created", post)
	return post, nil
}

func (s *Service) Publish(ctx context.Context, id string) (domain.Post, error) {
	postID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || postID == 0 {
		return domain.Post{}, domain.ErrInvalidID
	}

	post, err := s.repo.FindOne(ctx, &domain.Post{ID: postID})
	if err != nil {
		return domain.Post{}, err
	}
	if post == nil {
		return domain.Post{}, domain.ErrNotFound
	}
	if post.Published {
		return *post, nil
	}

	now := s.clock.Now()
	if err := s.repo.Update(ctx, postID, map[string]any{
		"published":    true,
		"published_at": now,
		"updated_at":   now,
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Post{}, domain.ErrNotFound
		}
		return domain.Post{}, err
	}

	post.Published = true
	post.PublishedAt = &now
	post.UpdatedAt = now
	s.audit(ctx, "blog.post_published", *post)
	return *post, nil
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", domain.ErrInvalidTitle
	}
	candidate := base
	for i := 2; ; i++ {
		count, err := s.repo.Count(ctx, nil, option.Where("slug = ?", candidate))
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) audit(ctx context.Context, action string, post domain.Post) {
	if s.auditSvc == nil {
		return
	}
	targetID := post.ID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "blog_post", &targetID, map[string]any{
		"slug": post.Slug,
	}); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
