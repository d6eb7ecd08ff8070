package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/triestelab/whatsapp-agent/internal/ai"
	"github.com/triestelab/whatsapp-agent/internal/matcher"
	"github.com/triestelab/whatsapp-agent/internal/scheduler"
	"github.com/triestelab/whatsapp-agent/internal/storage"
	"github.com/triestelab/whatsapp-agent/internal/webhook"
	"github.com/triestelab/whatsapp-agent/internal/whatsapp"
	"github.com/triestelab/whatsapp-agent/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	if cfg.Environment == "development" {
		devLogger, err := zap.NewDevelopment()
		if err == nil {
			logger = devLogger
		}
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Generative fallback and delivery gateway
	assistant := ai.NewPerplexityClient(
		cfg.Perplexity.BaseURL,
		cfg.Perplexity.APIKey,
		cfg.Perplexity.Model,
		cfg.Perplexity.MaxTokens,
		cfg.Perplexity.Temperature,
		logger,
	)
	sender := whatsapp.NewSender(cfg.WhatsApp.APIURL, cfg.WhatsApp.PhoneID, cfg.WhatsApp.Token, logger)

	// Answer selection
	responder := matcher.NewResponder(store, assistant, cfg.Bot.FuzzyThreshold, logger)

	// Background jobs
	sched := scheduler.New(store, sender, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// HTTP front door
	handler := webhook.NewHandler(store, responder, sender, cfg.WhatsApp.VerifyToken, cfg.Environment, logger)
	router := mux.NewRouter()
	handler.Register(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", zap.Int("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("Shutting down")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down server", zap.Error(err))
	}

	logger.Info("Server stopped")
}
