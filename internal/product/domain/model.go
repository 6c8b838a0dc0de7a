package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"type:text;not null"`
	Slug         string       `json:"slug" gorm:"type:varchar(160);not null;uniqueIndex"`
	Description  string       `json:"description,omitempty" gorm:"type:text"`
	ImageURL     string       `json:"image_url,omitempty" gorm:"type:text"`
	DisplayOrder int          `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
}

func (Category) TableName() string { return "product_categories" }

// Size is one purchasable size with its own unit price.
type Size struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Product struct {
	ID                 snowflake.ID                `json:"id" gorm:"primaryKey"`
	CategoryID         *snowflake.ID               `json:"category_id,omitempty" gorm:"index"`
	Name               string                      `json:"name" gorm:"type:text;not null"`
	Slug               string                      `json:"slug" gorm:"type:varchar(160);not null;uniqueIndex"`
	Description        string                      `json:"description,omitempty" gorm:"type:text"`
	BasePrice          decimal.Decimal             `json:"base_price" gorm:"type:numeric(12,2);not null"`
	Images             pq.StringArray              `json:"images" gorm:"type:text[]"`
	Sizes              datatypes.JSONSlice[Size]   `json:"sizes"`
	Colors             pq.StringArray              `json:"colors" gorm:"type:text[]"`
	BiodegradableGrade string                      `json:"biodegradable_grade,omitempty" gorm:"type:text"`
	Features           pq.StringArray              `json:"features" gorm:"type:text[]"`
	Specifications     datatypes.JSONMap           `json:"specifications,omitempty"`
	Customizable       bool                        `json:"customizable" gorm:"not null;default:false"`
	InStock            bool                        `json:"in_stock" gorm:"not null;index"`
	MinOrderQuantity   int                         `json:"min_order_quantity" gorm:"not null;default:1"`
	CreatedAt          time.Time                   `json:"created_at" gorm:"not null;index"`
	UpdatedAt          time.Time                   `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }
