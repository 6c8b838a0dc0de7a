package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/pkg/repository"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusQuoted     Status = "quoted"
	StatusClosed     Status = "closed"
)

var Statuses = []Status{StatusNew, StatusInProgress, StatusQuoted, StatusClosed}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusQuoted, StatusClosed:
		return true
	default:
		return false
	}
}

// Inquiry is a sales inquiry submitted through the contact form.
type Inquiry struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID        *snowflake.ID `gorm:"index" json:"user_id"`
	Name          string        `gorm:"type:text;not null" json:"name"`
	Email         string        `gorm:"type:text;not null" json:"email"`
	Phone         string        `gorm:"type:text" json:"phone,omitempty"`
	ProductType   string        `gorm:"type:text" json:"product_type,omitempty"`
	Message       string        `gorm:"type:text;not null" json:"message"`
	AttachmentURL string        `gorm:"type:text" json:"attachment_url,omitempty"`
	Status        Status        `gorm:"type:varchar(32);not null;default:'new';index" json:"status"`
	AssignedTo    *snowflake.ID `json:"assigned_to,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (Inquiry) TableName() string { return "inquiries" }

type Repository = repository.Repository[Inquiry]
