// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleCustomer         Role = "customer"
	RoleAdmin            Role = "admin"
	RoleProductManager   Role = "product_manager"
	RoleMarketingManager Role = "marketing_manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleProductManager, RoleMarketingManager:
		return true
	default:
		return false
	}
}

// Staff reports whether the role may open the admin dashboard.
func (r Role) Staff() bool {
	return r.Valid() && r != RoleCustomer
}

// User represents a site account.
type User struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Email               string       `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash        *string      `gorm:"type:text" json:"-"`
	FullName            string       `gorm:"column:full_name;type:text" json:"full_name"`
	Phone               string       `gorm:"column:phone;type:text" json:"phone,omitempty"`
	Role                Role         `gorm:"column:role;type:text;not null;default:'customer'" json:"role"`
	LastPasswordChanged *time.Time   `gorm:"column:last_password_changed" json:"-"`
	CreatedAt           time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// SessionView is returned to clients without exposing token values.
type SessionView struct {
	Metadata map[string]any `json:"metadata"`
}
