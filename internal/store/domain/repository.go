package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, store *Store) error
	FindByID(ctx context.Context, id snowflake.ID) (*Store, error)
	FindByOwner(ctx context.Context, ownerID snowflake.ID) ([]Store, error)
	FindAll(ctx context.Context) ([]Store, error)
	OwnsStore(ctx context.Context, ownerID, storeID snowflake.ID) (bool, error)
}
