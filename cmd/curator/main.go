package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/outlierlabs/digest-curator/internal/config"
	"github.com/outlierlabs/digest-curator/internal/curation"
	"github.com/outlierlabs/digest-curator/internal/generation"
	"github.com/outlierlabs/digest-curator/internal/history"
	"github.com/outlierlabs/digest-curator/internal/notifications"
	"github.com/outlierlabs/digest-curator/internal/scheduler"
	"github.com/outlierlabs/digest-curator/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Digest Curator")

	// Initialize Azure storage
	storageClient, err := storage.NewBlobStorage(cfg.StorageAccount, cfg.StorageContainer)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize topic history
	historyStore, err := openHistory(cfg, storageClient)
	if err != nil {
		logrus.Fatalf("Failed to initialize topic history: %v", err)
	}
	defer historyStore.Close()

	// Drafting is optional
	var generator generation.Generator
	if cfg.AnthropicAPIKey != "" {
		generator = generation.NewDrafter(generation.NewAnthropicClient(cfg.AnthropicAPIKey))
	} else {
		logrus.Info("ANTHROPIC_API_KEY not set, digests will not be drafted")
	}

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Initialize curation service
	curationService := curation.NewService(cfg, storageClient, historyStore, notificationService, generator)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg.Schedule, curationService)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()
	logrus.Infof("Next curation run at %s", schedulerService.Next().Format(time.RFC3339))

	// Set up HTTP server for health checks and manual triggers
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Metrics endpoint
	router.HandleFunc("/metrics", metricsHandler(curationService)).Methods("GET")

	// Latest digest
	router.HandleFunc("/selection", selectionHandler(curationService)).Methods("GET")

	// Manual trigger endpoint
	router.HandleFunc("/trigger", triggerHandler(curationService)).Methods("POST")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func openHistory(cfg *config.Config, store storage.StorageInterface) (history.Store, error) {
	switch cfg.HistoryBackend {
	case "sqlite":
		logrus.Infof("Using SQLite topic history at %s", cfg.HistoryDBPath)
		return history.OpenSQLite(cfg.HistoryDBPath)
	default:
		logrus.Info("Using blob topic history")
		return history.NewBlobStore(store), nil
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(curationService *curation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := curationService.GetMetrics()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(metrics))
	}
}

func selectionHandler(curationService *curation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		digest := curationService.LastDigest()
		if digest == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"No curation run has completed yet"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(digest)
	}
}

func triggerHandler(curationService *curation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := curationService.TriggerCuration(); err != nil {
			if errors.Is(err, curation.ErrRunInProgress) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"error":"Curation run already in progress"}`))
				return
			}
			logrus.Errorf("Manual curation trigger failed: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message":"Curation triggered successfully"}`))
	}
}
