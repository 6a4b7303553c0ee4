package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/authcontext"
)

// Profile maps an account to its marketplace role and display identity.
type Profile struct {
	AccountID snowflake.ID     `gorm:"column:account_id;primaryKey"`
	FullName  string           `gorm:"type:text;not null"`
	Role      authcontext.Role `gorm:"type:text;not null"`
	AvatarURL *string          `gorm:"column:avatar_url;type:text"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Profile) TableName() string { return "profiles" }
