package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|redo|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory; the default uses the embedded files")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmd, *dir, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, dir, name, version string) error {
	// create and validate work on files only and must not need a database
	switch cmd {
	case "create":
		if name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(migrate.DefaultDir, name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": cmd,
		"dir": dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")
	switch cmd {
	case "up", "down", "redo", "status":
		err = migrate.Run(ctx, sqlDB, dir, cmd)
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dir, version)
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		return err
	}
	logg.Info(ctx, "migration finished")
	return nil
}
