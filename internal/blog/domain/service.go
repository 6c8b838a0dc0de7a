package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/greenpack/pkg/db/pagination"
)

type ListRequest struct {
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Posts []Post `json:"posts"`
}

type CreateRequest struct {
	AuthorID      string   `json:"-"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	FeaturedImage string   `json:"featured_image"`
	Tags          []string `json:"tags"`
}

type Service interface {
	ListPublished(ctx context.Context, req ListRequest) (ListResponse, error)
	GetBySlug(ctx context.Context, slug string) (PostView, error)
	Create(ctx context.Context, req CreateRequest) (Post, error)
	Publish(ctx context.Context, id string) (Post, error)
}

var (
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidContent   = errors.New("invalid_content")
	ErrInvalidAuthor    = errors.New("invalid_author")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
