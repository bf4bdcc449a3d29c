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

	"github.com/chimucheck/backend/config"
	"github.com/chimucheck/backend/db"
	"github.com/chimucheck/backend/handlers"
	"github.com/chimucheck/backend/repositories"
	api "github.com/chimucheck/backend/routes"
	"github.com/chimucheck/backend/scoring"
	"github.com/chimucheck/backend/services"
	"github.com/chimucheck/backend/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	wsHub := scoring.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	statsRepo := repositories.NewPostgresPlayerStatsRepository(dbConn)
	newsRepo := repositories.NewPostgresNewsRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	logger.Info("repositories initialized")

	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(playerRepo)
	playerService := services.NewPlayerService(playerRepo, statsRepo, uploader, emailService, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, uploader, wsHub, logger)
	registrationService := services.NewRegistrationService(registrationRepo, tournamentRepo, playerRepo, logger)
	liveService := services.NewLiveService(tournamentRepo, registrationRepo, uploader, wsHub, logger)
	sessionManager := scoring.NewSessionManager()
	scoreService := services.NewScoreService(registrationRepo, tournamentRepo, sessionManager, liveService, logger)
	resultsService := services.NewResultsService(tournamentRepo, registrationRepo, playerRepo, statsRepo, wsHub, logger)
	importService := services.NewImportService(playerRepo, logger)
	newsService := services.NewNewsService(newsRepo, uploader, logger)
	eventService := services.NewEventService(eventRepo)
	logger.Info("services initialized")

	// Tournaments whose start date has passed are moved to EN_JUEGO
	// automatically.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament auto-start scheduler started", slog.Duration("interval", schedulerInterval))

		if err := tournamentService.AutoStartTournamentsByDate(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := tournamentService.AutoStartTournamentsByDate(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService, emailService, cfg.JWTSecretKey, logger)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	scoreHandler := handlers.NewScoreHandler(scoreService)
	resultsHandler := handlers.NewResultsHandler(resultsService)
	liveHandler := handlers.NewLiveHandler(liveService)
	newsHandler := handlers.NewNewsHandler(newsService)
	eventHandler := handlers.NewEventHandler(eventService)
	importHandler := handlers.NewImportHandler(importService)
	uploadHandler := handlers.NewUploadHandler(uploader)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		playerHandler,
		tournamentHandler,
		registrationHandler,
		scoreHandler,
		resultsHandler,
		liveHandler,
		newsHandler,
		eventHandler,
		importHandler,
		uploadHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
