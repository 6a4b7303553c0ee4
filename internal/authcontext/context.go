// Package authcontext carries the authenticated account through request
// contexts. The reservation and redemption services read the caller identity
// from here instead of any process-global session state.
package authcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role is the profile role attached to an account.
type Role string

const (
	RoleConsumer Role = "consumer"
	RolePartner  Role = "partner"
)

func (r Role) Valid() bool {
	return r == RoleConsumer || r == RolePartner
}

type accountIDKey struct{}
type roleKey struct{}

// WithAccountID stores the authenticated account id in the context.
func WithAccountID(ctx context.Context, accountID snowflake.ID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// WithRole stores the authenticated account's role in the context.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// AccountIDFromContext returns the account id from context, if set.
func AccountIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	switch typed := ctx.Value(accountIDKey{}).(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// RoleFromContext returns the role from context, if set.
func RoleFromContext(ctx context.Context) (Role, bool) {
	if ctx == nil {
		return "", false
	}
	if role, ok := ctx.Value(roleKey{}).(Role); ok && role.Valid() {
		return role, true
	}
	return "", false
}
