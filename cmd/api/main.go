package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marvista/community-portal-backend/api/routes"
	"github.com/marvista/community-portal-backend/internal/admin"
	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/internal/auth"
	"github.com/marvista/community-portal-backend/internal/community"
	"github.com/marvista/community-portal-backend/internal/mobileauth"
	"github.com/marvista/community-portal-backend/internal/users"
	"github.com/marvista/community-portal-backend/internal/validation"
	"github.com/marvista/community-portal-backend/pkg/auth/session"
	"github.com/marvista/community-portal-backend/pkg/clerk"
	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db"
	"github.com/marvista/community-portal-backend/pkg/logger"
	"github.com/marvista/community-portal-backend/pkg/metrics"
	"github.com/marvista/community-portal-backend/pkg/migrate"
	"github.com/marvista/community-portal-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.Flags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	clerkClient, err := clerk.NewClient(
		cfg.Clerk.SecretKey,
		clerk.WithBaseURL(cfg.Clerk.APIBaseURL),
		clerk.WithHTTPClient(&http.Client{Timeout: cfg.Clerk.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create clerk client", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	auditor := audit.NewRecorder(audit.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		Identity:       clerkClient,
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Auditor:        auditor,
		JWTConfig:      cfg.JWT,
		PortalConfig:   cfg.Portal,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	attemptStore, err := mobileauth.NewStore(redisClient, cfg.Mobile.AttemptTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create mobile attempt store", err)
		os.Exit(1)
	}

	mobileService, err := mobileauth.NewService(mobileauth.ServiceParams{
		Attempts:       attemptStore,
		Identity:       clerkClient,
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Auditor:        auditor,
		JWTConfig:      cfg.JWT,
		ClerkConfig:    cfg.Clerk,
		PortalConfig:   cfg.Portal,
		MobileConfig:   cfg.Mobile,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mobile auth service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(usersRepo, auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	communityService, err := community.NewService(usersRepo, auditor, cfg.Portal.CommunityName)
	if err != nil {
		logg.Error(context.Background(), "failed to create community service", err)
		os.Exit(1)
	}

	validationService, err := validation.NewService(usersRepo, cfg.JWT, cfg.Portal.ServiceToken)
	if err != nil {
		logg.Error(context.Background(), "failed to create validation service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Session:    sessionManager,
			Users:      usersRepo,
			Auth:       authService,
			Mobile:     mobileService,
			Admin:      adminService,
			Community:  communityService,
			Validation: validationService,
			Metrics:    httpMetrics,
			Registry:   registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
