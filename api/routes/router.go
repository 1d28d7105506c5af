package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marvista/community-portal-backend/api/controllers"
	"github.com/marvista/community-portal-backend/api/middleware"
	"github.com/marvista/community-portal-backend/internal/admin"
	"github.com/marvista/community-portal-backend/internal/auth"
	"github.com/marvista/community-portal-backend/internal/community"
	"github.com/marvista/community-portal-backend/internal/mobileauth"
	"github.com/marvista/community-portal-backend/internal/users"
	"github.com/marvista/community-portal-backend/internal/validation"
	"github.com/marvista/community-portal-backend/pkg/auth/session"
	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db"
	"github.com/marvista/community-portal-backend/pkg/logger"
	"github.com/marvista/community-portal-backend/pkg/metrics"
	"github.com/marvista/community-portal-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *redis.Client
	Session sessionManager

	Users      *users.Repository
	Auth       auth.Service
	Mobile     mobileauth.Service
	Admin      admin.Service
	Community  community.Service
	Validation validation.Service

	Metrics  *metrics.HTTPMetrics
	Registry *prometheus.Registry
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.Portal.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	)
	mobilePolicy := middleware.NewAuthRateLimitPolicy(
		"mobile_login",
		cfg.AuthRateLimit.MobileWindow,
		cfg.AuthRateLimit.MobileIPLimit,
	)

	r.Get("/health", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/mobile", func(r chi.Router) {
		r.Get("/health", controllers.MobileHealth())
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(mobilePolicy, deps.Redis, logg)).
				Post("/oauth-init", controllers.MobileOAuthInit(deps.Mobile, logg))
			r.Get("/callback", controllers.MobileOAuthCallback(deps.Mobile, logg))
			r.With(middleware.AuthRateLimit(mobilePolicy, deps.Redis, logg)).
				Post("/oauth-complete", controllers.MobileOAuthComplete(deps.Mobile, logg))
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Session, deps.Users, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Session, cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
			r.Get("/profile", controllers.AuthProfile(deps.Auth, logg))
		})
	})

	r.Route("/validate", func(r chi.Router) {
		r.Post("/token", controllers.ValidateToken(deps.Validation, logg))
		r.Get("/user/{userId}", controllers.ValidateUser(deps.Validation, logg))
		r.Get("/user/by-clerk-id/{clerkUserId}", controllers.ValidateUserByClerkID(deps.Validation, logg))
	})

	r.Route("/api", func(r chi.Router) {
		// user-status answers anonymously instead of rejecting.
		r.Get("/user-status", controllers.UserStatus(cfg.JWT, deps.Users, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
			r.Use(middleware.RequireUser(deps.Users, logg))
			r.Get("/apps", controllers.AppsList(logg))
		})
	})

	r.Route("/community", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.RequireUser(deps.Users, logg))

		r.Get("/info", controllers.CommunityInfo(deps.Community, logg))
		r.Get("/members", controllers.CommunityMembers(deps.Community, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Users, logg))
			r.Get("/stats", controllers.CommunityStats(deps.Community, logg))
			r.Post("/announcements", controllers.CommunityAnnounce(deps.Community, logg))
		})
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.RequireAdmin(deps.Users, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.Admin, logg))
			r.Post("/", controllers.AdminCreateUser(deps.Admin, logg))
			r.Get("/{userId}", controllers.AdminGetUser(deps.Admin, logg))
			r.Put("/{userId}", controllers.AdminUpdateUser(deps.Admin, logg))
			r.Delete("/{userId}", controllers.AdminDeleteUser(deps.Admin, logg))
			r.Post("/{userId}/active", controllers.AdminSetUserActive(deps.Admin, logg))
		})

		r.Post("/user-roles", controllers.AdminAssignRole(deps.Admin, logg))
		r.Delete("/user-roles", controllers.AdminRemoveRole(deps.Admin, logg))
	})

	return r
}
