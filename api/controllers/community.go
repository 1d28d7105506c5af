package controllers

import (
	"net/http"

	"github.com/marvista/community-portal-backend/api/middleware"
	"github.com/marvista/community-portal-backend/api/responses"
	"github.com/marvista/community-portal-backend/api/validators"
	"github.com/marvista/community-portal-backend/internal/community"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

// CommunityInfo summarizes member counts for any signed-in user.
func CommunityInfo(svc community.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.Info(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// CommunityMembers lists active members with directory-level detail only.
func CommunityMembers(svc community.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := svc.Members(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

// CommunityStats is the richer admin-only statistics view.
func CommunityStats(svc community.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// CommunityAnnounce logs an admin announcement to the audit trail.
func CommunityAnnounce(svc community.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body community.AnnouncementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Announce(r.Context(), middleware.UserFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
