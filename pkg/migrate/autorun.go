package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

// autoRunSkipReason returns "" when the API should migrate on boot.
func autoRunSkipReason(cfg *config.Config) string {
	switch {
	case cfg == nil:
		return "no config"
	case !cfg.App.IsDev():
		return "not a dev environment"
	case !cfg.FeatureFlags.AutoMigrate:
		return "auto migrate disabled"
	case cfg.FeatureFlags.UseSQLite:
		// the SQL files target Postgres
		return "sqlite database"
	}
	return ""
}

// MaybeRunDev brings a dev database up to the embedded schema on API boot.
// Every other environment migrates through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if reason := autoRunSkipReason(cfg); reason != "" {
		logg.Debug(logg.WithField(ctx, "reason", reason), "skipping migrations on boot")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := prepare(""); err != nil {
		return err
	}
	before, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return err
	}
	after, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"from_version": before,
		"to_version":   after,
	}), "schema migrated on boot")
	return nil
}
