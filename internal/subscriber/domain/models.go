package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/pkg/repository"
)

// Source records which public form created the subscription.
type Source string

const (
	SourceNewsletter Source = "newsletter"
	SourceCommunity  Source = "community"
)

type Subscriber struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email          string        `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`
	Name           string        `gorm:"type:text" json:"name,omitempty"`
	Source         Source        `gorm:"type:varchar(32);not null" json:"source"`
	UserID         *snowflake.ID `json:"user_id,omitempty"`
	Subscribed     bool          `gorm:"not null;default:true;index" json:"subscribed"`
	SubscribedAt   time.Time     `gorm:"not null" json:"subscribed_at"`
	UnsubscribedAt *time.Time    `json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

func (Subscriber) TableName() string { return "newsletter_subscribers" }

type Repository = repository.Repository[Subscriber]
