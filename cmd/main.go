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

	"github.com/courtside/club-games/config"
	"github.com/courtside/club-games/db"
	"github.com/courtside/club-games/handlers"
	"github.com/courtside/club-games/middleware"
	"github.com/courtside/club-games/notifications"
	"github.com/courtside/club-games/repositories"
	api "github.com/courtside/club-games/routes"
	"github.com/courtside/club-games/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

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
		}
	}()
	logger.Info("database connection established")

	hub := notifications.NewHub(logger)
	go hub.Run()
	logger.Info("notification hub started")

	txManager := repositories.NewSQLTxManager(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	clubMemberRepo := repositories.NewPostgresClubMemberRepository(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)

	gameService := services.NewGameService(txManager, gameRepo, participantRepo, clubMemberRepo, hub)
	admissionService := services.NewAdmissionService(txManager, gameRepo, participantRepo, userRepo, clubMemberRepo, hub)
	logger.Info("services initialized")

	authenticator := middleware.NewAuthenticator([]byte(cfg.JWTSecretKey))
	gameHandler := handlers.NewGameHandler(gameService, admissionService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, gameService)

	router := chi.NewRouter()
	api.SetupRoutes(router, authenticator, gameHandler, webSocketHandler)
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
}
