package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/api/middleware"
	"github.com/marvista/community-portal-backend/api/responses"
	"github.com/marvista/community-portal-backend/api/validators"
	"github.com/marvista/community-portal-backend/internal/auth"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

type loginRequest struct {
	Service string `json:"service"`
}

// AuthLogin exchanges a verified provider session for a locally minted token
// pair. The provider token rides the Authorization header; the body is an
// optional service name for the audit trail. The response body is the raw
// token pair, not the envelope.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := parseBearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loginRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), auth.LoginInput{
			ClerkSessionToken: token,
			Service:           body.Service,
			IPAddress:         requestIP(r),
			UserAgent:         requestUserAgent(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// AuthProfile returns the caller's stored profile.
func AuthProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

func requestIP(r *http.Request) *string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return &ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return &host
	}
	if r.RemoteAddr != "" {
		addr := r.RemoteAddr
		return &addr
	}
	return nil
}

func requestUserAgent(r *http.Request) *string {
	if ua := r.Header.Get("User-Agent"); ua != "" {
		return &ua
	}
	return nil
}
