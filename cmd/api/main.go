package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/raffleworks/raffle-backend/api/routes"
	"github.com/raffleworks/raffle-backend/internal/config"
	"github.com/raffleworks/raffle-backend/internal/handlers"
	mongorepo "github.com/raffleworks/raffle-backend/internal/repositories/mongodb"
	"github.com/raffleworks/raffle-backend/internal/services"
	"github.com/raffleworks/raffle-backend/internal/ws"
	"github.com/raffleworks/raffle-backend/pkg/mongodb"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	raffleEventRepo := mongorepo.NewRaffleEventRepository(db)
	prizeRepo := mongorepo.NewPrizeRepository(db)
	participantRepo := mongorepo.NewParticipantRepository(db)
	teamMemberRepo := mongorepo.NewTeamMemberRepository(db)
	winnerRepo := mongorepo.NewWinnerRepository(db)
	raffleLogRepo := mongorepo.NewRaffleLogRepository(db)
	auditLogRepo := mongorepo.NewAuditLogRepository(db)
	operatorRepo := mongorepo.NewOperatorRepository(db)

	// One hub per process; every raffle room lives in it.
	hub := ws.NewHub()

	// Services
	drawService := services.NewDrawService(
		raffleEventRepo,
		prizeRepo,
		participantRepo,
		teamMemberRepo,
		winnerRepo,
		raffleLogRepo,
		auditLogRepo,
		hub,
	)
	raffleService := services.NewRaffleService(
		raffleEventRepo,
		prizeRepo,
		participantRepo,
		winnerRepo,
		raffleLogRepo,
	)
	authService := services.NewAuthService(operatorRepo, cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Handlers
	h := &routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Raffle:  handlers.NewRaffleHandler(drawService, raffleService),
		Control: handlers.NewControlHandler(hub, cfg),
		Stream:  ws.NewHandler(hub),
	}

	router := routes.SetupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	slog.Info("server starting", "port", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
