package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/api"
	"github.com/chatforge/widgetd/internal/config"
	"github.com/chatforge/widgetd/internal/events"
	"github.com/chatforge/widgetd/internal/repository"
	"github.com/chatforge/widgetd/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	chatbotRepo := repository.NewChatbotRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)

	// Event hub connecting settings writes to the widget event stream
	hub := events.NewHub()

	// Initialize services
	adminService := service.NewAdminService(chatbotRepo, revisionRepo, hub)
	widgetService := service.NewWidgetService(cfg, chatbotRepo)

	// Setup router
	router := api.SetupRouter(adminService, widgetService, hub, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: cfg.CORS.AllowOrigins,
		BackendBase:  cfg.Server.BaseURL,
		PingInterval: time.Duration(cfg.Events.PingIntervalSeconds) * time.Second,
		Logger:       logger,
	})

	// Create HTTP server. The events endpoint holds connections open, so
	// no write timeout.
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting widgetd server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
