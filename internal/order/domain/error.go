package domain

import (
	"errors"
	"fmt"
)

// Reservation failures. Each one is recoverable by the caller retrying or
// adjusting the quantity.
var (
	ErrNotAuthenticated    = errors.New("not_authenticated")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidID           = errors.New("invalid_id")
	ErrStockCheckFailed    = errors.New("stock_check_failed")
	ErrOrderCreationFailed = errors.New("order_creation_failed")
)

// InsufficientStockError is returned when the freshness read shows fewer
// units than requested. Available carries the stock observed at check time.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient_stock: %d available", e.Available)
}

// StockReservationFailedError is returned when neither decrement strategy
// reserved stock after the order row was already created. The compensating
// delete has run (best effort) by the time callers see this.
type StockReservationFailedError struct {
	Reason string
}

func (e *StockReservationFailedError) Error() string {
	return "stock_reservation_failed: " + e.Reason
}

// Redemption failures.
var (
	ErrCodeNotFound          = errors.New("code_not_found")
	ErrNotAuthorizedForStore = errors.New("not_authorized_for_store")
	ErrAlreadyRedeemed       = errors.New("already_redeemed")
	ErrOrderCancelled        = errors.New("order_cancelled")
)

// Cancellation failures.
var (
	ErrNotFound      = errors.New("order_not_found")
	ErrNotOrderOwner = errors.New("not_order_owner")
	ErrNotCancelable = errors.New("order_not_cancelable")
)
