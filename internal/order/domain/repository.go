package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, order *Order) error
	// Delete removes an order row outright. Used only by the reservation
	// workflow's compensating step, never to express cancellation.
	Delete(ctx context.Context, id snowflake.ID) error
	FindByID(ctx context.Context, id snowflake.ID) (*Order, error)
	// FindByPickupCode returns the most recent pending order for the code,
	// falling back to the most recent order in any status when no pending
	// match exists (so retries after a crash still hit step-3 checks).
	FindByPickupCode(ctx context.Context, code string) (*Order, error)
	// MarkCompleted transitions pending -> completed and returns the
	// affected-row count. Zero rows means the order was no longer pending.
	MarkCompleted(ctx context.Context, id snowflake.ID) (int64, error)
	// MarkCancelled transitions pending -> cancelled, same contract.
	MarkCancelled(ctx context.Context, id snowflake.ID) (int64, error)
	ListByConsumer(ctx context.Context, consumerID snowflake.ID) ([]HistoryRow, error)
	ListByStore(ctx context.Context, storeID snowflake.ID) ([]HistoryRow, error)
}
