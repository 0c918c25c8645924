package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lapordesa/pkg/config"
	"lapordesa/pkg/database"
	"lapordesa/pkg/logger"
	"lapordesa/pkg/middleware"
	"lapordesa/services/auth-service/models"
	"lapordesa/services/auth-service/utils"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New("auth-service", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("[ERROR] Failed to connect to database", zap.Error(err))
	}

	log.Info("Running auto migration")
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatal("[ERROR] Migration failed", zap.Error(err))
	}

	middleware.RegisterMetrics()

	secret := []byte(cfg.JWTSecret)
	srv := &server{
		users:     newGormUserStore(db),
		tokens:    utils.NewIssuer(secret, utils.DefaultTokenTTL),
		logger:    log,
		jwtSecret: secret,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.AuthPort,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("[OK] Auth service running", zap.String("port", cfg.AuthPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[ERROR] Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("[ERROR] Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Auth service stopped")
}
