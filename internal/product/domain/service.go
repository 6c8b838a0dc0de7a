package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	Update(ctx context.Context, req UpdateRequest) (*Product, error)
	Count(ctx context.Context) (int64, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
}

type ListRequest struct {
	Search       string
	CategorySlug string
	// IncludeOutOfStock is only honoured on the admin listing.
	IncludeOutOfStock bool
	SortBy            string
	OrderBy           string
}

type CreateRequest struct {
	CategoryID         string            `json:"category_id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	BasePrice          decimal.Decimal   `json:"base_price"`
	Images             []string          `json:"images"`
	Sizes              []Size            `json:"sizes"`
	Colors             []string          `json:"colors"`
	BiodegradableGrade string            `json:"biodegradable_grade"`
	Features           []string          `json:"features"`
	Specifications     map[string]string `json:"specifications"`
	Customizable       bool              `json:"customizable"`
	InStock            *bool             `json:"in_stock"`
	MinOrderQuantity   int               `json:"min_order_quantity"`
}

type UpdateRequest struct {
	ID                 string             `json:"-"`
	Name               *string            `json:"name"`
	Description        *string            `json:"description"`
	BasePrice          *decimal.Decimal   `json:"base_price"`
	Images             *[]string          `json:"images"`
	Sizes              *[]Size            `json:"sizes"`
	Colors             *[]string          `json:"colors"`
	BiodegradableGrade *string            `json:"biodegradable_grade"`
	Features           *[]string          `json:"features"`
	Specifications     *map[string]string `json:"specifications"`
	Customizable       *bool              `json:"customizable"`
	InStock            *bool              `json:"in_stock"`
	MinOrderQuantity   *int               `json:"min_order_quantity"`
}

type CreateCategoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	DisplayOrder int    `json:"display_order"`
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidQuantity = errors.New("invalid_min_order_quantity")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
)
