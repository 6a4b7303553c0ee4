package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is a reservation of Quantity units of one product by one consumer.
// TotalPrice captures quantity x discount price at reservation time, in
// currency minor units. An order row only exists if the matching stock
// decrement succeeded; the reservation workflow deletes it otherwise.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ConsumerID snowflake.ID `gorm:"column:consumer_id;not null;index"`
	ProductID  snowflake.ID `gorm:"column:product_id;not null;index"`
	StoreID    snowflake.ID `gorm:"column:store_id;not null;index"`
	Quantity   int          `gorm:"not null"`
	TotalPrice int64        `gorm:"column:total_price;not null"`
	PickupCode string       `gorm:"column:pickup_code;not null;index"`
	Status     Status       `gorm:"type:text;not null;default:pending"`
	RedeemedAt *time.Time   `gorm:"column:redeemed_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

// HistoryRow is an order joined with display fields of its product and store.
type HistoryRow struct {
	Order
	ProductTitle string  `gorm:"column:product_title"`
	ProductImage *string `gorm:"column:product_image"`
	StoreName    string  `gorm:"column:store_name"`
	StoreAddress string  `gorm:"column:store_address"`
}
