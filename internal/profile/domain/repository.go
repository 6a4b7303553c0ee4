package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	FindByAccountID(ctx context.Context, accountID snowflake.ID) (*Profile, error)
	Delete(ctx context.Context, accountID snowflake.ID) error
}
