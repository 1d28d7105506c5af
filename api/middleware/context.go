package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/pkg/db/models"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxUser   contextKey = "current_user"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// UserFromContext returns the database user loaded by RequireAdmin, or nil
// when no lookup has happened on this request.
func UserFromContext(ctx context.Context) *models.CommunityUser {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.CommunityUser); ok {
		return v
	}
	return nil
}

// WithUserID injects the authenticated user identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

func contextWithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithUser injects the loaded database user into the context.
func WithUser(ctx context.Context, user *models.CommunityUser) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
