package controllers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/api/middleware"
	"github.com/marvista/community-portal-backend/api/responses"
	"github.com/marvista/community-portal-backend/internal/apps"
	"github.com/marvista/community-portal-backend/internal/users"
	pkgAuth "github.com/marvista/community-portal-backend/pkg/auth"
	"github.com/marvista/community-portal-backend/pkg/config"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

type appsResponse struct {
	User         *users.UserDTO               `json:"user"`
	Applications []apps.AccessibleApplication `json:"applications"`
	TotalAccess  int                          `json:"total_access"`
	AutoRedirect string                       `json:"auto_redirect,omitempty"`
}

type userStatusResponse struct {
	Authenticated bool                         `json:"authenticated"`
	User          *users.UserDTO               `json:"user,omitempty"`
	Applications  []apps.AccessibleApplication `json:"applications,omitempty"`
}

// AppsList filters the application registry down to what the caller can open.
func AppsList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		accessible := apps.Accessible(user)
		resp := appsResponse{
			User:         users.FromModel(user),
			Applications: accessible,
			TotalAccess:  len(accessible),
		}
		if url, ok := apps.AutoRedirectURL(accessible); ok {
			resp.AutoRedirect = url
		}

		// documented launcher shape, no envelope
		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// UserStatus reports whether the presented token maps to a known user. An
// anonymous or stale token is a normal answer here, not an error.
func UserStatus(cfg config.JWTConfig, repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anonymous := userStatusResponse{Authenticated: false}

		token, err := parseBearerToken(r)
		if err != nil {
			responses.WriteSuccess(w, anonymous)
			return
		}

		claims, err := pkgAuth.ParseAccessToken(cfg, token)
		if err != nil {
			responses.WriteSuccess(w, anonymous)
			return
		}

		user, err := repo.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteSuccess(w, anonymous)
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user"))
			return
		}
		if !user.IsActive {
			responses.WriteSuccess(w, anonymous)
			return
		}

		responses.WriteSuccess(w, userStatusResponse{
			Authenticated: true,
			User:          users.FromModel(user),
			Applications:  apps.Accessible(user),
		})
	}
}
