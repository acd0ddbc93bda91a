package branchcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// BranchContextKey is the request context key for the active branch ID.
type BranchContextKey struct{}

// WithBranchID stores the branch ID in the context.
func WithBranchID(ctx context.Context, branchID int64) context.Context {
	return context.WithValue(ctx, BranchContextKey{}, branchID)
}

// ActorContextKey is the request context key for the acting user.
type ActorContextKey struct{}

// RoleContextKey is the request context key for the acting user's role.
type RoleContextKey struct{}

// WithActor stores the acting user's identifier in the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, actor)
}

// ActorFromContext returns the acting user's identifier, or "" when unset.
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if actor, ok := ctx.Value(ActorContextKey{}).(string); ok {
		return actor
	}
	return ""
}

// WithRole stores the acting user's role in the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleContextKey{}, role)
}

// RoleFromContext returns the acting user's role, or "" when unset.
func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if role, ok := ctx.Value(RoleContextKey{}).(string); ok {
		return role
	}
	return ""
}

// BranchIDFromContext returns the branch ID from context, if set.
func BranchIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value := ctx.Value(BranchContextKey{})
	switch typed := value.(type) {
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
