package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/api"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/api/handlers"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/export"
	"github.com/Jakob-KB/financial-market-correlation-topology/internal/pipeline"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the network API",
	Long: `Serves the correlation network over HTTP.

The correlation matrix is read once from the saved pipeline artifact;
threshold changes recompute only the network, communities and layout.

Endpoints:
  GET /health               - Health check
  GET /api/correlation      - Correlation matrix
  GET /api/network          - Render payload (?threshold=, ?layout=)
  GET /api/network/live     - WebSocket threshold explorer

Example:
  go run ./cmd/topology api
  go run ./cmd/topology api --port 8080 --correlation data/correlation.csv`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiCorrelation string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from config)")
	apiCmd.Flags().StringVar(&apiCorrelation, "correlation", "", "correlation CSV artifact (default <data dir>/correlation.csv)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Correlation Topology API ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load the correlation matrix artifact
	corrPath := apiCorrelation
	if corrPath == "" {
		corrPath = filepath.Join(cfg.Analysis.DataDir, "correlation.csv")
	}
	f, err := os.Open(corrPath)
	if err != nil {
		return fmt.Errorf("open correlation artifact (run the pipeline first): %w", err)
	}
	corrMatrix, err := export.ReadCorrelationCSV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read correlation artifact: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"assets": len(corrMatrix.Symbols),
		"source": corrPath,
	}).Info("Initializing API server")

	// 4. Create pipeline and handlers
	pipe := pipeline.New(log)
	defaults := pipelineConfig(cfg)

	networkHandler := handlers.NewNetworkHandler(corrMatrix, pipe, defaults, log)
	liveHandler := handlers.NewLiveHandler(corrMatrix, pipe, defaults, log)

	// 5. Create router and server
	router := api.NewRouter(networkHandler, liveHandler, log)
	server := api.New(cfg, log, router)

	// 6. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET /health")
	fmt.Println("  GET /api/correlation")
	fmt.Println("  GET /api/network")
	fmt.Println("  GET /api/network/live")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
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
