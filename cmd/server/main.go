package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"carqr/backend/internal/config"
	"carqr/backend/internal/httpserver"
	"carqr/backend/internal/infrastructure/postgres"
	"carqr/backend/internal/infrastructure/token"
	authusecase "carqr/backend/internal/usecase/auth"
	carusecase "carqr/backend/internal/usecase/car"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}

	rootCtx := context.Background()
	db, err := postgres.New(rootCtx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	if err := db.Migrate(rootCtx); err != nil {
		logger.WithError(err).Fatal("failed to run database migrations")
	}

	tokenManager := token.NewJWTManager(cfg.JWTSecret, cfg.TokenLifetime)

	userRepo := postgres.NewUserRepository(db.Pool)
	authService := authusecase.NewService(userRepo, tokenManager)
	carService := carusecase.NewService(postgres.NewCarRepository(db.Pool), userRepo)

	server := httpserver.NewServer(cfg, logger, authService, carService)
	logger.WithField("addr", server.Addr()).Info("HTTP server listening")

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Info("HTTP server closed")
				return
			}
			logger.WithError(err).Fatal("server error")
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("graceful shutdown completed")
	}
}
