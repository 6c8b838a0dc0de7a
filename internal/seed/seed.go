package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/auth/password"
	productdomain "github.com/smallbiznis/greenpack/internal/product/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultAdminName = "Greenpack Admin"

// DefaultCategories are created on first boot so the catalog is browsable.
var DefaultCategories = []string{
	"Carry Bags",
	"Shopping Bags",
	"Garbage Bags",
	"Custom Bags",
}

type Options struct {
	AdminEmail    string
	AdminPassword string
	Log           *zap.Logger
}

// Run seeds the catalog categories and, when credentials are configured,
// the first admin account. It is safe to call on every start.
func Run(ctx context.Context, db *gorm.DB, node *snowflake.Node, opts Options) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := ensureCategories(ctx, tx, node)
		if err != nil {
			return err
		}
		if created > 0 {
			log.Info("seeded product categories", zap.Int("count", created))
		}

		email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
		if email == "" || opts.AdminPassword == "" {
			return nil
		}
		user, err := ensureAdmin(ctx, tx, node, email, opts.AdminPassword)
		if err != nil {
			return err
		}
		log.Info("admin account ready", zap.String("user_id", user.ID.String()))
		return nil
	})
}

func ensureCategories(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (int, error) {
	created := 0
	for i, name := range DefaultCategories {
		categorySlug := slug.Make(name)

		var existing productdomain.Category
		err := tx.WithContext(ctx).Where("slug = ?", categorySlug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		category := productdomain.Category{
			ID:           node.Generate(),
			Name:         name,
			Slug:         categorySlug,
			DisplayOrder: i + 1,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// ensureAdmin creates the admin user or promotes an existing account with
// the same email. An existing password is left untouched.
func ensureAdmin(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email string, rawPassword string) (*authdomain.User, error) {
	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != authdomain.RoleAdmin {
			if err := tx.WithContext(ctx).Model(&user).Updates(map[string]any{
				"role":       authdomain.RoleAdmin,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
				return nil, err
			}
			user.Role = authdomain.RoleAdmin
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        email,
		PasswordHash: &hashed,
		FullName:     defaultAdminName,
		Role:         authdomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
