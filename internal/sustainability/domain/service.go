package domain

import (
	"context"
	"errors"
	"time"
)

type RecordRequest struct {
	MetricDate          string   `json:"metric_date"`
	ProductsDelivered   int64    `json:"products_delivered"`
	PlasticWasteSavedKg float64  `json:"plastic_waste_saved_kg"`
	CarbonOffsetKg      *float64 `json:"carbon_offset_kg"`
	TreesEquivalent     *int64   `json:"trees_equivalent"`
	CustomersServed     int64    `json:"customers_served"`
}

type Summary struct {
	Days                int64      `json:"days"`
	ProductsDelivered   int64      `json:"products_delivered"`
	PlasticWasteSavedKg float64    `json:"plastic_waste_saved_kg"`
	CarbonOffsetKg      float64    `json:"carbon_offset_kg"`
	TreesEquivalent     int64      `json:"trees_equivalent"`
	CustomersServed     int64      `json:"customers_served"`
	LatestMetricDate    *time.Time `json:"latest_metric_date,omitempty"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Metric, error)
	// List returns metrics between from and to inclusive, oldest first.
	// A zero bound is open.
	List(ctx context.Context, from, to time.Time) ([]Metric, error)
	Summary(ctx context.Context) (Summary, error)
}

var (
	ErrInvalidDate  = errors.New("invalid_metric_date")
	ErrInvalidValue = errors.New("invalid_metric_value")
	ErrInvalidRange = errors.New("invalid_time_range")
)
