package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/api/responses"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommunityUser, error)
}

// RequireUser resolves the authenticated user against the database and stores
// it in the request context. Deactivated users are rejected even when their
// token has not expired yet.
func RequireUser(repo userLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireUser(repo, logg, false)
}

// RequireAdmin additionally demands a stored super-admin role. The role claim
// embedded in the token is ignored here: a demotion takes effect on the next
// request, not at the next token refresh.
func RequireAdmin(repo userLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireUser(repo, logg, true)
}

func requireUser(repo userLoader, logg *logger.Logger, adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := repo.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user"))
				return
			}

			if !user.IsActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account deactivated"))
				return
			}

			if adminOnly && !user.Role.IsSuperAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
