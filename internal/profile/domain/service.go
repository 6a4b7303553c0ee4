package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/authcontext"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, accountID snowflake.ID) (*Response, error)
	Delete(ctx context.Context, accountID snowflake.ID) error
}

type CreateRequest struct {
	AccountID snowflake.ID
	FullName  string
	Role      authcontext.Role
}

type Response struct {
	AccountID string           `json:"account_id"`
	FullName  string           `json:"full_name"`
	Role      authcontext.Role `json:"role"`
	AvatarURL *string          `json:"avatar_url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidRole = errors.New("invalid_role")
	ErrNotFound    = errors.New("not_found")
)
