// Command createadmin provisions the default administrator account.
package main

import (
	"log"

	"go.uber.org/zap"
	"pera.com/perasystem/internal/bootstrap"
	"pera.com/perasystem/internal/config"
	"pera.com/perasystem/pkg/database"
	"pera.com/perasystem/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, false)
	if err != nil {
		lg.Fatal("database unavailable", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	created, err := bootstrap.SeedAdminUser(db, cfg.AdminPassword, lg)
	if err != nil {
		lg.Fatal("failed to create admin user", zap.Error(err))
	}
	if created {
		lg.Info("admin credentials", zap.String("email", bootstrap.AdminEmail))
	}
}
