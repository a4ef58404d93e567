package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpomar16/cancha-system/config"
	"github.com/mpomar16/cancha-system/db"
	"github.com/mpomar16/cancha-system/handlers"
	"github.com/mpomar16/cancha-system/live"
	"github.com/mpomar16/cancha-system/repositories"
	"github.com/mpomar16/cancha-system/routes"
	"github.com/mpomar16/cancha-system/services"
	"github.com/mpomar16/cancha-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DatabaseURL, 10*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to init R2 uploader", slog.String("error", err.Error()))
		os.Exit(1)
	}

	hub := live.NewHub()
	go hub.Run()

	// Репозитории.
	txRunner := repositories.NewTxRunner(database)
	reservationRepo := repositories.NewPostgresReservationRepository(database)
	participationRepo := repositories.NewPostgresParticipationRepository(database)
	paymentRepo := repositories.NewPostgresPaymentRepository(database)
	tokenRepo := repositories.NewPostgresTokenRepository(database)
	incidentRepo := repositories.NewPostgresIncidentRepository(database)
	catalogRepo := repositories.NewPostgresCatalogRepository(database)
	userRepo := repositories.NewPostgresUserRepository(database)

	// Сервисы.
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, logger)
	reservationService := services.NewReservationService(txRunner, reservationRepo, participationRepo, paymentRepo, catalogRepo)
	participationService := services.NewParticipationService(txRunner, participationRepo, reservationRepo, catalogRepo)
	paymentService := services.NewPaymentService(txRunner, paymentRepo, reservationRepo, logger)
	checkInService := services.NewCheckInService(txRunner, tokenRepo, reservationRepo, catalogRepo, uploader, hub, logger)
	incidentService := services.NewIncidentService(incidentRepo, reservationRepo, catalogRepo, hub, logger)
	catalogService := services.NewCatalogService(catalogRepo)

	router := routes.SetupRoutes(routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Reservation:   handlers.NewReservationHandler(reservationService),
		Participation: handlers.NewParticipationHandler(participationService),
		Payment:       handlers.NewPaymentHandler(paymentService),
		CheckIn:       handlers.NewCheckInHandler(checkInService),
		Incident:      handlers.NewIncidentHandler(incidentService),
		Catalog:       handlers.NewCatalogHandler(catalogService),
		Live:          handlers.NewLiveHandler(hub, logger),
	}, cfg.JWTSecretKey)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Фоновая инвалидация просроченных QR-токенов.
	go runTokenSweeper(ctx, checkInService, cfg.QRSweepInterval, logger)

	go func() {
		logger.Info("server starting", slog.Int("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func runTokenSweeper(ctx context.Context, checkInService services.CheckInService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := checkInService.SweepExpired(ctx); err != nil {
				logger.Error("token sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
