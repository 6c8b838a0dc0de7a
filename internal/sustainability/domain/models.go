package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/pkg/repository"
)

// DateLayout is the wire format of MetricDate.
const DateLayout = "2006-01-02"

// Metric is one day of delivered impact.
type Metric struct {
	ID                  snowflake.ID `json:"id" gorm:"primaryKey"`
	MetricDate          time.Time    `json:"metric_date" gorm:"type:date;not null;uniqueIndex"`
	ProductsDelivered   int64        `json:"products_delivered" gorm:"not null;default:0"`
	PlasticWasteSavedKg float64      `json:"plastic_waste_saved_kg" gorm:"not null;default:0"`
	CarbonOffsetKg      float64      `json:"carbon_offset_kg" gorm:"not null;default:0"`
	TreesEquivalent     int64        `json:"trees_equivalent" gorm:"not null;default:0"`
	CustomersServed     int64        `json:"customers_served" gorm:"not null;default:0"`
	CreatedAt           time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt           time.Time    `json:"updated_at" gorm:"not null"`
}

func (Metric) TableName() string { return "sustainability_metrics" }

type Repository = repository.Repository[Metric]
