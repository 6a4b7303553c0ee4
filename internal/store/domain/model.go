package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store is a physical pickup location owned by one partner account.
type Store struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OwnerID   snowflake.ID `gorm:"column:owner_id;not null;index"`
	Name      string       `gorm:"type:text;not null"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex"`
	Address   string       `gorm:"type:text;not null"`
	Latitude  float64      `gorm:"not null"`
	Longitude float64      `gorm:"not null"`
	ImageURL  *string      `gorm:"column:image_url;type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Store) TableName() string { return "stores" }
