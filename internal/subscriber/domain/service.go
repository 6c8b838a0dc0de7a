package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/pkg/db/pagination"
)

type SubscribeRequest struct {
	Kind    leadcapture.FormKind
	Fields  map[string]string
	Session *leadcapture.SessionInfo
}

type ListRequest struct {
	pagination.Pagination
	ActiveOnly bool
}

type ListResponse struct {
	pagination.PageInfo
	Subscribers []Subscriber `json:"subscribers"`
}

type Service interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	CountActive(ctx context.Context) (int64, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrAlreadySubscribed = errors.New("already_subscribed")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidKind       = errors.New("invalid_form_kind")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
