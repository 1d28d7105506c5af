package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/api/responses"
	"github.com/marvista/community-portal-backend/api/validators"
	"github.com/marvista/community-portal-backend/internal/validation"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

const (
	serviceTokenHeader = "X-Service-Token"
	serviceNameHeader  = "X-Service-Name"
)

// ValidateToken lets peer services check a portal JWT. The body always
// reports the outcome; a bad token is a 200 with valid=false.
func ValidateToken(svc validation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body validation.TokenValidationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			typed := pkgerrors.As(err)
			msg := "invalid request body"
			if typed != nil && typed.Message() != "" {
				msg = typed.Message()
			}
			responses.WriteJSON(w, http.StatusOK, validation.TokenValidationResponse{Valid: false, Error: msg})
			return
		}

		responses.WriteJSON(w, http.StatusOK, svc.ValidateToken(r.Context(), body))
	}
}

// ValidateUser returns a user profile to a trusted peer service.
func ValidateUser(svc validation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id"))
			return
		}

		resp, err := svc.UserForService(
			r.Context(),
			r.Header.Get(serviceTokenHeader),
			r.Header.Get(serviceNameHeader),
			userID,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ValidateUserByClerkID is the provider-id variant of ValidateUser.
func ValidateUserByClerkID(svc validation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clerkUserID := chi.URLParam(r, "clerkUserId")
		if clerkUserID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing clerk user id"))
			return
		}

		resp, err := svc.UserByClerkID(
			r.Context(),
			r.Header.Get(serviceTokenHeader),
			r.Header.Get(serviceNameHeader),
			clerkUserID,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
