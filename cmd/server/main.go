package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/tinylink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/tinylink/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/tinylink/pkg/config"
	"github.com/wadjakorntonsri/tinylink/pkg/core/services"
	"github.com/wadjakorntonsri/tinylink/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.AppEnv)

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	// Initialize Service
	service := services.NewLinkService(repo)

	// Initialize Router
	mux := handler.NewRouter(cfg, service)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("base_url", cfg.BaseURL).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
