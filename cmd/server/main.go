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

	"itineramio/internal/config"
	"itineramio/internal/infra"
	"itineramio/internal/router"
	"itineramio/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title        Itineramio Billing API
// @version      1.0
// @description  Reservation import, owner liquidations and client invoices.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in           header
// @name         Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON otherwise
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL, cfg.WorkerPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	svc := router.NewServices(cfg, db)

	// Background consumers share the service layer with the HTTP handlers.
	worker.NewPool(rdb, map[string]worker.JobHandler{
		worker.QueueLiquidation: worker.NewLiquidationWorker(svc.Liquidations),
		worker.QueueEmailIngest: worker.NewEmailIngestWorker(svc.Imports),
	}).Start(ctx, cfg.WorkerPoolSize)
	worker.StartOverdueCron(ctx, svc.Invoices, cfg.OverdueSweepInterval)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(cfg, db, rdb, svc),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("itineramio billing listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
