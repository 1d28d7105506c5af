package migrate

import (
	"context"
	"fmt"

	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

// MaybeRunDev applies the schema automatically when the app runs in dev mode
// with the auto-migrate flag enabled. The SQLite dev backend is schema-managed
// by GORM; Postgres goes through the versioned Goose migrations.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Flags.AutoMigrate {
		return nil
	}

	if cfg.Flags.UseSQLite {
		ctx = logg.WithField(ctx, "backend", "sqlite")
		logg.Info(ctx, "auto-migrating dev schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(
			&models.CommunityUser{},
			&models.UserAppRole{},
			&models.AuditLog{},
		); err != nil {
			return fmt.Errorf("auto-migrating sqlite schema: %w", err)
		}
		logg.Info(ctx, "dev schema ready")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
