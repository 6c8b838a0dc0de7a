package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/greenpack/pkg/db/option"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not_found")

// Repository is the storage collaborator for one table.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, id any, patch map[string]any) error
	Delete(ctx context.Context, id any) error
	Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error
}

// StorageError wraps a failure reported by the database.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
