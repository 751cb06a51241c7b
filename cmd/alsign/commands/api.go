package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/5ys-5y5/alsign-sub001/internal/api"
	"github.com/5ys-5y5/alsign-sub001/internal/api/handlers"
	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/consensus"
	"github.com/5ys-5y5/alsign-sub001/internal/engine"
	"github.com/5ys-5y5/alsign-sub001/internal/provider"
	"github.com/5ys-5y5/alsign-sub001/internal/store"
	"github.com/5ys-5y5/alsign-sub001/pkg/database"
	"github.com/5ys-5y5/alsign-sub001/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the HTTP API server.

Endpoints:
  GET  /health                         - Health check
  GET  /api/metrics/catalog            - Loaded metric definitions and order
  POST /api/metrics/catalog/reload     - Reload catalog from disk
  POST /api/metrics/compute            - Evaluate the metric graph for an event
  GET  /api/metrics/documents/{ticker} - Fetch a persisted document
  GET  /api/consensus/events/{id}      - Fetch one consensus event
  POST /api/consensus/resolve          - Resolve consensus partitions

Example:
  go run ./cmd/alsign api
  go run ./cmd/alsign api --port 8091`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// Catalog and engine
	cat, _, err := catalog.LoadFile(cfg.Engine.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	hash, err := catalog.Hash(cat)
	if err != nil {
		return fmt.Errorf("hash catalog: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"metrics": cat.Len(),
		"hash":    hash[:12],
	}).Info("Catalog loaded")

	eng := engine.New(cat, log.Zerolog())

	// Database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// Redis document cache (no-op when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	docCache := redis.NewCache(redisClient, "alsign")

	// Provider and stores
	providerClient := provider.NewClient(cfg, log)
	resultRepo := store.NewResultRepository(db.Pool)
	consensusStore := store.NewConsensusStore(db.Pool)
	resolver := consensus.NewResolver(consensusStore, log.Zerolog())

	// Handlers and router
	metricsHandler := handlers.NewMetricsHandler(
		eng,
		cfg.Engine.CatalogPath,
		providerClient,
		resultRepo,
		docCache,
		cfg.Redis.CacheTTL,
		cfg.Engine.LookbackQtr,
		log,
	)
	consensusHandler := handlers.NewConsensusHandler(consensusStore, resolver, log)

	router := api.NewRouter(metricsHandler, consensusHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
