package domain

import (
	"context"
	"time"
)

type Service interface {
	// Reserve turns a consumer's rescue action into a consistent
	// (order, stock) pair, or a specific recoverable failure.
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveResponse, error)
	// Redeem locates a pending order by pickup code and completes it,
	// scoped to stores owned by the calling partner.
	Redeem(ctx context.Context, pickupCode string) (*RedeemResponse, error)
	// Cancel transitions one of the caller's own pending orders to cancelled.
	Cancel(ctx context.Context, orderID string) error
	// History lists the caller's orders, newest first, with product and
	// store display fields joined in.
	History(ctx context.Context) ([]HistoryItem, error)
	// StoreOrders lists orders against one of the caller's stores.
	StoreOrders(ctx context.Context, storeID string) ([]HistoryItem, error)
}

type ReserveRequest struct {
	ProductID string
	Quantity  int
}

type ReserveResponse struct {
	OrderID    string `json:"order_id"`
	PickupCode string `json:"pickup_code"`
	TotalPrice int64  `json:"total_price"`
	Status     Status `json:"status"`
}

type RedeemResponse struct {
	OrderID      string `json:"order_id"`
	ProductTitle string `json:"product_title"`
	Quantity     int    `json:"quantity"`
	StoreName    string `json:"store_name"`
}

type HistoryItem struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	ProductTitle string     `json:"product_title"`
	ProductImage *string    `json:"product_image,omitempty"`
	StoreName    string     `json:"store_name"`
	StoreAddress string     `json:"store_address"`
	Quantity     int        `json:"quantity"`
	TotalPrice   int64      `json:"total_price"`
	PickupCode   string     `json:"pickup_code"`
	Status       Status     `json:"status"`
	RedeemedAt   *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
