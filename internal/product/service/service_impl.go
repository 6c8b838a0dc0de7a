package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	"github.com/smallbiznis/greenpack/internal/cache"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const cachePrefix = "products:"

// maxSlugAttempts bounds the -2, -3 ... suffix search.
const maxSlugAttempts = 50

type Params struct {
	fx.In

	Cfg      config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Cache    cache.Store
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	cache    cache.Store
	cacheTTL time.Duration
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    p.Clock,
		cache:    p.Cache,
		cacheTTL: p.Cfg.Redis.CacheTTL,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	filter := domain.ListFilter{
		Search:      strings.TrimSpace(req.Search),
		InStockOnly: !req.IncludeOutOfStock,
		SortBy:      strings.TrimSpace(req.SortBy),
		OrderBy:     strings.TrimSpace(req.OrderBy),
	}
	categorySlug := strings.ToLower(strings.TrimSpace(req.CategorySlug))

	key := cachePrefix + cache.Key("list", filter.Search, categorySlug,
		strconv.FormatBool(filter.InStockOnly), filter.SortBy, filter.OrderBy)

	var cached []domain.Product
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("product cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	if categorySlug != "" {
		category, err := s.repo.FindCategoryBySlug(ctx, s.db, categorySlug)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return []domain.Product{}, nil
		}
		filter.CategoryID = &category.ID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, items, s.cacheTTL); err != nil {
			s.log.Warn("product cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

func (s *Service) GetBySlug(ctx context.Context, value string) (*domain.Product, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil, domain.ErrNotFound
	}
	item, err := s.repo.FindBySlug(ctx, s.db, value)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.BasePrice.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	for _, size := range req.Sizes {
		if strings.TrimSpace(size.Name) == "" || size.Price.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
	}
	minQty := req.MinOrderQuantity
	if minQty == 0 {
		minQty = 1
	}
	if minQty < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var categoryID *snowflake.ID
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidCategory
		}
		categoryID = &id
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	productSlug, err := s.uniqueSlug(ctx, "products", name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &domain.Product{
		ID:                 s.genID.Generate(),
		CategoryID:         categoryID,
		Name:               name,
		Slug:               productSlug,
		Description:        strings.TrimSpace(req.Description),
		BasePrice:          req.BasePrice.Round(2),
		Images:             cleanList(req.Images),
		Sizes:              datatypes.NewJSONSlice(cleanSizes(req.Sizes)),
		Colors:             cleanList(req.Colors),
		BiodegradableGrade: strings.TrimSpace(req.BiodegradableGrade),
		Features:           cleanList(req.Features),
		Specifications:     toJSONMap(req.Specifications),
		Customizable:       req.Customizable,
		InStock:            inStock,
		MinOrderQuantity:   minQty,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	targetID := item.ID.String()
	s.audit(ctx, "product.created", "product", &targetID, map[string]any{
		"name": item.Name,
		"slug": item.Slug,
	})
	return item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Product, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	changed := make([]string, 0, 4)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
		changed = append(changed, "name")
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
		changed = append(changed, "description")
	}
	if req.BasePrice != nil {
		if req.BasePrice.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.BasePrice = req.BasePrice.Round(2)
		changed = append(changed, "base_price")
	}
	if req.Images != nil {
		item.Images = cleanList(*req.Images)
		changed = append(changed, "images")
	}
	if req.Sizes != nil {
		for _, size := range *req.Sizes {
			if strings.TrimSpace(size.Name) == "" || size.Price.IsNegative() {
				return nil, domain.ErrInvalidPrice
			}
		}
		item.Sizes = datatypes.NewJSONSlice(cleanSizes(*req.Sizes))
		changed = append(changed, "sizes")
	}
	if req.Colors != nil {
		item.Colors = cleanList(*req.Colors)
		changed = append(changed, "colors")
	}
	if req.BiodegradableGrade != nil {
		item.BiodegradableGrade = strings.TrimSpace(*req.BiodegradableGrade)
		changed = append(changed, "biodegradable_grade")
	}
	if req.Features != nil {
		item.Features = cleanList(*req.Features)
		changed = append(changed, "features")
	}
	if req.Specifications != nil {
		item.Specifications = toJSONMap(*req.Specifications)
		changed = append(changed, "specifications")
	}
	if req.Customizable != nil {
		item.Customizable = *req.Customizable
		changed = append(changed, "customizable")
	}
	if req.InStock != nil {
		item.InStock = *req.InStock
		changed = append(changed, "in_stock")
	}
	if req.MinOrderQuantity != nil {
		if *req.MinOrderQuantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		item.MinOrderQuantity = *req.MinOrderQuantity
		changed = append(changed, "min_order_quantity")
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	s.invalidate(ctx)
	targetID := item.ID.String()
	s.audit(ctx, "product.updated", "product", &targetID, map[string]any{
		"fields": changed,
	})
	return item, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, s.db)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	items, err := s.repo.ListCategories(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Category{}
	}
	return items, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	categorySlug, err := s.uniqueSlug(ctx, "product_categories", name)
	if err != nil {
		return nil, err
	}

	item := &domain.Category{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         categorySlug,
		Description:  strings.TrimSpace(req.Description),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		DisplayOrder: req.DisplayOrder,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.CreateCategory(ctx, s.db, item); err != nil {
		return nil, err
	}

	targetID := item.ID.String()
	s.audit(ctx, "category.created", "category", &targetID, map[string]any{
		"name": item.Name,
		"slug": item.Slug,
	})
	return item, nil
}

func (s *Service) uniqueSlug(ctx context.Context, table string, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", domain.ErrInvalidName
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.repo.SlugExists(ctx, s.db, table, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%d", base, s.genID.Generate().Int64()), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cachePrefix); err != nil {
		s.log.Warn("product cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, targetType, targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cleanSizes(values []domain.Size) []domain.Size {
	out := make([]domain.Size, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Size{
			Name:  strings.TrimSpace(v.Name),
			Price: v.Price.Round(2),
		})
	}
	return out
}

func toJSONMap(values map[string]string) datatypes.JSONMap {
	if len(values) == 0 {
		return nil
	}
	out := datatypes.JSONMap{}
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

