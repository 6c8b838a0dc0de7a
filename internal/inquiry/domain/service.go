package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/pkg/db/pagination"
)

type SubmitRequest struct {
	Fields  map[string]string
	Session *leadcapture.SessionInfo
}

type ListRequest struct {
	pagination.Pagination
	Status Status
}

type ListResponse struct {
	pagination.PageInfo
	Inquiries []Inquiry `json:"inquiries"`
}

type CountFilter struct {
	Status Status
	UserID *snowflake.ID
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (Inquiry, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]Inquiry, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ListRecent(ctx context.Context, limit int) ([]Inquiry, error)
	Count(ctx context.Context, filter CountFilter) (int64, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status Status) (Inquiry, error)
	Assign(ctx context.Context, id snowflake.ID, assigneeID snowflake.ID) (Inquiry, error)
}

var (
	ErrNotFound         = errors.New("not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidAssignee  = errors.New("invalid_assignee")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
