package controllers

import (
	"context"
	"net/http"

	"github.com/marvista/community-portal-backend/api/responses"
	"github.com/marvista/community-portal-backend/api/validators"
	"github.com/marvista/community-portal-backend/internal/mobileauth"
	"github.com/marvista/community-portal-backend/internal/users"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

// The mobile app predates the envelope format, so these endpoints keep their
// fixed {success, ...} body shapes.

type mobileOAuthInitRequest struct {
	Provider string `json:"provider" validate:"required"`
}

type mobileOAuthInitResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirectUrl"`
	SignInID    string `json:"signInId"`
	Provider    string `json:"provider"`
}

type mobileOAuthCompleteRequest struct {
	SignInID string `json:"signInId" validate:"required"`
}

type mobileOAuthCompleteResponse struct {
	Success bool           `json:"success"`
	User    *users.UserDTO `json:"user"`
	Token   string         `json:"token"`
}

type mobileErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeMobileError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if m := typed.Message(); m != "" && typed.Code() != pkgerrors.CodeInternal {
		msg = m
	}

	if logg != nil {
		logg.Error(ctx, "mobile.request.error", err)
	}

	responses.WriteJSON(w, meta.HTTPStatus, mobileErrorResponse{Success: false, Error: msg})
}

// MobileOAuthInit starts a hosted sign-in attempt for the mobile app.
func MobileOAuthInit(svc mobileauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body mobileOAuthInitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			writeMobileError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Initiate(r.Context(), body.Provider)
		if err != nil {
			writeMobileError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, mobileOAuthInitResponse{
			Success:     true,
			RedirectURL: resp.RedirectURL,
			SignInID:    resp.SignInID,
			Provider:    resp.Provider,
		})
	}
}

// MobileOAuthCallback is hit by the hosted page redirect. It binds the
// provider session to the pending attempt so Complete can re-verify it.
func MobileOAuthCallback(svc mobileauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := mobileauth.CallbackInput{
			SignInID:       r.URL.Query().Get("sign_in_id"),
			ClerkSessionID: r.URL.Query().Get("created_session_id"),
		}
		if input.SignInID == "" || input.ClerkSessionID == "" {
			writeMobileError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing sign_in_id or created_session_id"))
			return
		}

		if err := svc.Callback(r.Context(), input); err != nil {
			writeMobileError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "sign-in confirmed, return to the app",
		})
	}
}

// MobileOAuthComplete finishes a bound attempt and mints the local token.
func MobileOAuthComplete(svc mobileauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body mobileOAuthCompleteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			writeMobileError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Complete(r.Context(), mobileauth.CompleteInput{
			SignInID:  body.SignInID,
			IPAddress: requestIP(r),
			UserAgent: requestUserAgent(r),
		})
		if err != nil {
			writeMobileError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, mobileOAuthCompleteResponse{
			Success: true,
			User:    resp.User,
			Token:   resp.Token,
		})
	}
}
