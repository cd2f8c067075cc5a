package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/VoidMesh/pathfinder/internal/api"
	"github.com/VoidMesh/pathfinder/internal/config"
	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/rover"
	"github.com/VoidMesh/pathfinder/internal/terrain"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Setup logging
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Prefix)
	logger.Debug("Configuration loaded",
		"server_port", cfg.Server.Port,
		"width", cfg.Terrain.Width,
		"height", cfg.Terrain.Height,
		"chunk_size", cfg.Terrain.ChunkSize,
		"seed", cfg.Terrain.Seed,
		"noise_backend", cfg.Terrain.NoiseBackend,
	)

	// Initialize terrain
	logger.Debug("Initializing terrain map")
	terrainMap, err := terrain.New(cfg.Terrain)
	if err != nil {
		logger.Fatal("Failed to initialize terrain", "error", err)
	}
	logger.Info("Terrain initialized",
		"cols", terrainMap.Store().Cols(),
		"rows", terrainMap.Store().Rows(),
		"max_elevation", terrainMap.MaxElevation(),
	)

	// Initialize rover manager
	roverManager := rover.NewManager(terrainMap, cfg.RoverOptions())
	logger.Debug("Rover manager initialized")

	// Start background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go roverManager.Run(ctx, cfg.Maintenance.TickInterval)
	logger.Debug("Maintenance loop started", "interval", cfg.Maintenance.TickInterval)

	// Initialize API handlers
	handler := api.NewHandler(terrainMap, roverManager)
	roverHandlers := api.NewRoverHandlers(roverManager)
	router := api.SetupRoutes(handler, roverHandlers, api.MiddlewareOptions{
		CORSEnabled:    cfg.Server.CORSEnabled,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	logger.Debug("API routes configured")

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting pathfinder server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
		logger.Debug("Server stopped listening")
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	} else {
		logger.Debug("Server shutdown completed gracefully")
	}

	stats := terrainMap.Stats()
	logger.Info("Server exited",
		"rovers", roverManager.Len(),
		"resident_chunks", stats.Resident,
		"generated_chunks", stats.Generated,
		"evicted_chunks", stats.Evicted,
	)
}
