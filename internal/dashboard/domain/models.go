package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
)

// RecentInquiryLimit is how many inquiries the admin overview shows.
const RecentInquiryLimit = 10

type AdminOverview struct {
	TotalProducts     int64                   `json:"total_products"`
	TotalInquiries    int64                   `json:"total_inquiries"`
	NewInquiries      int64                   `json:"new_inquiries"`
	ActiveSubscribers int64                   `json:"active_subscribers"`
	RecentInquiries   []inquirydomain.Inquiry `json:"recent_inquiries"`
}

type CustomerOverview struct {
	TotalInquiries int64                   `json:"total_inquiries"`
	ByStatus       map[string]int64        `json:"by_status"`
	Inquiries      []inquirydomain.Inquiry `json:"inquiries"`
}

type Service interface {
	AdminOverview(ctx context.Context) (AdminOverview, error)
	CustomerOverview(ctx context.Context, userID snowflake.ID) (CustomerOverview, error)
}

var ErrInvalidUser = errors.New("invalid_user")
