package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Search      string
	InStockOnly bool
	CategoryID  *snowflake.ID
	SortBy      string
	OrderBy     string
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	SlugExists(ctx context.Context, db *gorm.DB, table string, slug string) (bool, error)

	CreateCategory(ctx context.Context, db *gorm.DB, category *Category) error
	FindCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*Category, error)
	ListCategories(ctx context.Context, db *gorm.DB) ([]Category, error)
}
