// Package main implements a REST service for managing user subscriptions.
//
//	@title			Subscription Service API
//	@version		1.0
//	@description	API for CRUDL operations and cost aggregation on user subscriptions.
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subscription-service/internal/config"
	"subscription-service/internal/handler"
	"subscription-service/internal/logger"
	"subscription-service/internal/repository"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using config file and environment")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logger)

	db, err := repository.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.RunMigrations(db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	subRepo := repository.NewSubscriptionRepository(db)
	subHandler := handler.NewHandler(subRepo)

	r := mux.NewRouter()
	r.Use(handler.LogRequest)

	r.HandleFunc("/subscriptions/", subHandler.CreateSubscription).Methods("POST")
	r.HandleFunc("/subscriptions/list/", subHandler.ListSubscriptions).Methods("GET")
	r.HandleFunc("/subscriptions/sum/", subHandler.SumSubscriptions).Methods("GET")
	r.HandleFunc("/subscriptions/{id}", subHandler.GetSubscription).Methods("GET")
	r.HandleFunc("/subscriptions/{id}", subHandler.UpdateSubscription).Methods("PUT")
	r.HandleFunc("/subscriptions/{id}", subHandler.DeleteSubscription).Methods("DELETE")
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
