package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/smallbiznis/greenpack/pkg/repository"
)

type Post struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	AuthorID      *snowflake.ID  `json:"author_id,omitempty" gorm:"index"`
	Title         string         `json:"title" gorm:"type:text;not null"`
	Slug          string         `json:"slug" gorm:"type:varchar(160);not null;uniqueIndex"`
	Content       string         `json:"content" gorm:"type:text;not null"`
	Excerpt       string         `json:"excerpt,omitempty" gorm:"type:text"`
	FeaturedImage string         `json:"featured_image,omitempty" gorm:"type:text"`
	Tags          pq.StringArray `json:"tags" gorm:"type:text[]"`
	Published     bool           `json:"published" gorm:"not null;default:false;index"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;index"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null"`
}

func (Post) TableName() string { return "blog_posts" }

// PostView is a post with its markdown content rendered to HTML.
type PostView struct {
	Post
	ContentHTML string `json:"content_html"`
}

type Repository = repository.Repository[Post]
