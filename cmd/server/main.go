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

	"github.com/rs/zerolog/log"

	"github.com/paletteml/artstyle-api/internal/catalog"
	"github.com/paletteml/artstyle-api/internal/config"
	"github.com/paletteml/artstyle-api/internal/handlers"
	"github.com/paletteml/artstyle-api/internal/logger"
	"github.com/paletteml/artstyle-api/internal/model"
	"github.com/paletteml/artstyle-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.AppName, cfg.LogLevel)

	labels := model.DefaultLabels()
	if cfg.LabelsPath != "" {
		labels, err = model.LoadLabels(cfg.LabelsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load style labels")
		}
	}

	// The catalog is optional: without DATABASE_URL the gallery endpoint
	// reports unavailable and everything else works normally.
	var store *catalog.Store
	if cfg.DatabaseURL != "" {
		store, err = catalog.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open catalog store")
		}
		defer store.Close()
	} else {
		log.Info().Msg("No DATABASE_URL configured; gallery endpoint disabled")
	}

	prov := model.NewProvisioner(cfg.ModelPath, cfg.ModelURL)
	classifier := model.NewClassifier(prov, labels, cfg.OnnxRuntimeLib)
	defer classifier.Close()

	h := handlers.NewHandler(classifier, labels, store, cfg.MaxUploadBytes, cfg.GalleryMaxLimit)
	router := server.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Int("styles", labels.Count()).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-quit
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
	log.Info().Msg("Server stopped")
}
