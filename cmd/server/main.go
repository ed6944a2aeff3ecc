package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/clique/internal/adapters/http"
	"github.com/dkeye/clique/internal/app"
	"github.com/dkeye/clique/internal/app/orch"
	"github.com/dkeye/clique/internal/config"
	"github.com/dkeye/clique/internal/roster"
)

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug().Str("module", "main").Msg("no .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Str("module", "main").Msg("failed to load config")
	}
	setupLogger(cfg.Log)

	store, err := roster.Open(ctx, cfg.Roster)
	if err != nil {
		log.Fatal().Err(err).Str("module", "main").Msg("failed to open roster store")
	}
	defer store.Close()

	notifier := roster.NewNotifier(store, cfg.Roster.QueueSize, cfg.Roster.Timeout)
	notifyCtx, stopNotifier := context.WithCancel(context.Background())
	go notifier.Run(notifyCtx)
	defer stopNotifier()

	engine := orch.New(
		app.NewRegistry(),
		app.NewRoomManager(),
		app.PolicyByName(cfg.SlowConsumerPolicy),
		notifier,
		orch.Options{
			GracePeriod:          cfg.GracePeriod,
			ReconcileInterval:    cfg.ReconcileInterval,
			ReconcileMaxAttempts: cfg.ReconcileMaxAttempts,
		},
	)

	r := router.SetupRouter(ctx, cfg, engine, store)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router.WithCORS(r, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("module", "main").Str("addr", addr).Msg("Clique server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("module", "main").Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Str("module", "main").Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Str("module", "main").Msg("Server forced to shutdown")
	}
	engine.Close()
	log.Info().Str("module", "main").Msg("Server exited gracefully")
}
