package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/greenpack/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type store[T any] struct {
	db         *gorm.DB
	collection string
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db, collection: tableName[T](db)}
}

func tableName[T any](db *gorm.DB) string {
	var model T
	if tabler, ok := any(&model).(schema.Tabler); ok {
		return tabler.TableName()
	}
	if db != nil {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(&model); err == nil && stmt.Schema != nil {
			return stmt.Schema.Table
		}
	}
	return "unknown"
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx, collection: r.collection}
}

func (r *store[T]) Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	if err := r.buildQuery(ctx, filter, opts...).Find(&result).Error; err != nil {
		return nil, r.wrap("find", err)
	}
	return result, nil
}

// FindOne returns nil, nil when nothing matches.
func (r *store[T]) FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error) {
	var result T
	err := r.buildQuery(ctx, filter, opts...).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.wrap("find_one", err)
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		return r.wrap("create", err)
	}
	return nil
}

func (r *store[T]) Update(ctx context.Context, id any, patch map[string]any) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return r.wrap("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.wrap("update", ErrNotFound)
	}
	return nil
}

func (r *store[T]) Delete(ctx context.Context, id any) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return r.wrap("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.wrap("delete", ErrNotFound)
	}
	return nil
}

func (r *store[T]) Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error) {
	var count int64
	stmt := r.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		stmt = stmt.Where(filter)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	if err := stmt.Count(&count).Error; err != nil {
		return 0, r.wrap("count", err)
	}
	return count, nil
}

func (r *store[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if len(resources) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(resources).Error; err != nil {
		return r.wrap("batch_create", err)
	}
	return nil
}

func (r *store[T]) buildQuery(ctx context.Context, filter *T, opts ...option.QueryOption) *gorm.DB {
	db := r.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		db = db.Where(filter)
	}
	for _, opt := range opts {
		db = opt.Apply(db)
	}
	return db
}

func (r *store[T]) wrap(op string, err error) error {
	return &StorageError{Op: op, Collection: r.collection, Err: err}
}
