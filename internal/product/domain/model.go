package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a surplus-food listing. Prices are in currency minor units.
// StockQuantity is the one shared mutable field in the system; it is only
// ever written through the guarded decrement paths in Repository.
type Product struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	StoreID       snowflake.ID      `gorm:"column:store_id;not null;index"`
	Title         string            `gorm:"type:text;not null"`
	Description   *string           `gorm:"type:text"`
	OriginalPrice int64             `gorm:"column:original_price;not null"`
	DiscountPrice int64             `gorm:"column:discount_price;not null"`
	StockQuantity int               `gorm:"column:stock_quantity;not null"`
	ExpiryDate    time.Time         `gorm:"column:expiry_date;not null;index"`
	CO2Saved      float64           `gorm:"column:co2_saved;not null;default:0"`
	ImageURL      *string           `gorm:"column:image_url;type:text"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// Listing is a product row joined with display fields of its store.
type Listing struct {
	Product
	StoreName      string  `gorm:"column:store_name"`
	StoreAddress   string  `gorm:"column:store_address"`
	StoreLatitude  float64 `gorm:"column:store_latitude"`
	StoreLongitude float64 `gorm:"column:store_longitude"`
}
