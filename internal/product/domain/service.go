package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Delete(ctx context.Context, id string) error
}

// ImageUpload carries an optional listing image. The blob is stored before
// the row insert and deleted again if the insert fails.
type ImageUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type CreateRequest struct {
	StoreID       string
	Title         string
	Description   *string
	OriginalPrice int64
	DiscountPrice int64
	StockQuantity int
	ExpiryDate    time.Time
	CO2Saved      float64
	Metadata      map[string]any
	Image         *ImageUpload
}

type ListRequest struct {
	StoreID        string
	IncludeExpired bool
	IncludeSoldOut bool
}

type StoreInfo struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Response struct {
	ID            string     `json:"id"`
	StoreID       string     `json:"store_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	OriginalPrice int64      `json:"original_price"`
	DiscountPrice int64      `json:"discount_price"`
	StockQuantity int        `json:"stock_quantity"`
	ExpiryDate    time.Time  `json:"expiry_date"`
	CO2Saved      float64    `json:"co2_saved"`
	ImageURL      *string    `json:"image_url,omitempty"`
	Store         *StoreInfo `json:"store,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

var (
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrPartnerOnly      = errors.New("partner_only")
	ErrNotStoreOwner    = errors.New("not_store_owner")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidDiscount  = errors.New("invalid_discount")
	ErrInvalidStock     = errors.New("invalid_stock")
	ErrInvalidExpiry    = errors.New("invalid_expiry")
	ErrInvalidCO2       = errors.New("invalid_co2")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")

	// ErrStockConflict is returned by the atomic decrement when stock is
	// insufficient at write time.
	ErrStockConflict = errors.New("stock_conflict")
)
