package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/server"
	applog "github.com/npc-hackathon/tripplanner/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	// Initialize logger
	if err := applog.Init(zapcore.InfoLevel, zap.String("service", "tripplanner")); err != nil {
		return err
	}
	logger := applog.Log
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Create server
	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	// Setup router
	router := server.SetupRouter(srv.Handlers(), logger)

	// Set the router on the server
	srv.SetRouter(router)

	// Start pprof server (on separate port, not exposed publicly)
	server.StartPprofServer(":6060", logger)

	// Create HTTP server
	httpServer := srv.HTTPServer()

	// Setup graceful shutdown
	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, logger, done)

	// Start server
	logger.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", zap.Error(err))
	}

	// Wait for graceful shutdown to complete
	<-done
	logger.Info("Graceful shutdown complete")

	return nil
}
