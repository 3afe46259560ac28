package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	bun.BaseModel         `bun:"table:user"`
	ID                    string     `bun:"id,pk" json:"id"`
	Username              string     `bun:"username" json:"username"`
	Role                  string     `bun:"role,default:'user'" json:"role"`
	SubscriptionTier      string     `bun:"subscription_tier,default:'free'" json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time `bun:"subscription_expires_at" json:"subscription_expires_at"`
	LifetimePoints        int        `bun:"lifetime_points" json:"lifetime_points"`
	CreatedAt             time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt             time.Time  `bun:"updated_at" json:"updated_at"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
