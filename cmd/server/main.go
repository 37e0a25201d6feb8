package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"pera.com/perasystem/internal/bootstrap"
	"pera.com/perasystem/internal/config"
	"pera.com/perasystem/internal/server"
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

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		lg.Fatal("database unavailable", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}
	if cfg.IsDevelopment() {
		if _, err := bootstrap.SeedAdminUser(db, cfg.AdminPassword, lg); err != nil {
			lg.Fatal("failed to seed admin user", zap.Error(err))
		}
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		lg.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(cfg, db, redisClient, lg)
	if err != nil {
		lg.Fatal("failed to build server", zap.Error(err))
	}
	srv.Scheduler().Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.AppEnv))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server exited with error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
	srv.Scheduler().Stop()
}
