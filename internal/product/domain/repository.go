package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ListFilter struct {
	StoreID        snowflake.ID
	IncludeExpired bool
	IncludeSoldOut bool
}

type Repository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)
	ListActive(ctx context.Context, now time.Time, filter ListFilter) ([]Listing, error)
	Delete(ctx context.Context, id snowflake.ID) error

	StockStore
}

// StockStore is the slice of the data gateway the reservation workflow
// touches. FetchStock is the advisory freshness read; the two decrement
// methods are the only writers of products.stock_quantity.
type StockStore interface {
	// FetchStock re-reads the current stock quantity from the backend.
	FetchStock(ctx context.Context, id snowflake.ID) (int, error)
	// DecrementStockAtomic invokes the server-side decrement_stock procedure,
	// one indivisible guarded update. Returns ErrStockConflict when the
	// procedure ran but found insufficient stock.
	DecrementStockAtomic(ctx context.Context, id snowflake.ID, quantity int) error
	// DecrementStockGuarded issues the fallback conditional update. newStock
	// is computed from the freshness read; the guard re-checks sufficiency at
	// write time. Returns the affected-row count.
	DecrementStockGuarded(ctx context.Context, id snowflake.ID, newStock, quantity int) (int64, error)
}
