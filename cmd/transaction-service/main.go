package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/bankcore/card-transactions/internal/client"
	"github.com/bankcore/card-transactions/internal/config"
	"github.com/bankcore/card-transactions/internal/handler"
	"github.com/bankcore/card-transactions/internal/httputil"
	"github.com/bankcore/card-transactions/internal/postgres"
	"github.com/bankcore/card-transactions/internal/repository"
	"github.com/bankcore/card-transactions/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load("transactions", "8080")

	db, err := postgres.Connect(cfg.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database successfully")

	transactionRepo := repository.NewTransactionRepository(db)
	cardClient := client.NewHTTPCardClient(cfg.CardServiceURL, cfg.CardServiceTimeout, logger)

	transactionService := service.NewTransactionService(transactionRepo, cardClient, logger)

	transactionHandler := handler.NewTransactionHandler(transactionService, logger)

	router := mux.NewRouter()
	transactionHandler.RegisterRoutes(router)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.Use(httputil.LoggingMiddleware(logger))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting transaction service on port " + cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down transaction service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err.Error())
	}

	logger.Info("transaction service exited gracefully")
}
