package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/api"
	"github.com/lmoren/listly-be/internal/auth"
	"github.com/lmoren/listly-be/internal/config"
	"github.com/lmoren/listly-be/internal/docstore"
	"github.com/lmoren/listly-be/internal/logger"
	"github.com/lmoren/listly-be/internal/monitoring"
	"github.com/lmoren/listly-be/internal/services"
	"github.com/lmoren/listly-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	auth.Init(cfg.JWTSecret)

	// Set up the document store
	store, err := docstore.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document store")
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply store migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(store)
	userService := services.NewUserService(store)
	listService := services.NewListService(store, eventService, hub)
	sharingService := services.NewSharingService(store, listService, userService, eventService, hub)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(hub, eventService)
	go statUpdater.Run()

	// Set up and run the background event pruner
	retention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
	pruner, err := monitoring.NewPruner(eventService, cfg.PruneCron, retention)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid prune cron expression")
	}
	go pruner.Run()

	// Set up router
	router := api.NewRouter(hub, userService, listService, sharingService, eventService, statUpdater, cfg.CORSOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()
	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
