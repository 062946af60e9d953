// Command seed creates the initial admin account, or resets its password when
// it already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"hr-attendance/internal/bootstrap"
	"hr-attendance/internal/config"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/platform/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).With("cmd", "seed")

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(cfg, db, nil, nil, logger)
	if err != nil {
		return err
	}

	admin, created, err := services.Users.EnsureAdmin(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info(ctx, "admin user created", "user_id", admin.ID, "username", admin.Username)
	} else {
		logger.Info(ctx, "admin user already existed, password reset", "user_id", admin.ID, "username", admin.Username)
	}
	return nil
}
