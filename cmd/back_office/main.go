package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/microfin-loan-office/internal/back_office"
	"github.com/microfin-loan-office/internal/back_office/service"
	"github.com/microfin-loan-office/internal/config"
	"github.com/microfin-loan-office/internal/data/mongo"
	"github.com/microfin-loan-office/internal/data/postgres"
	"github.com/microfin-loan-office/internal/logger"
	"github.com/microfin-loan-office/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("back_office")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	customerRepo := postgres.NewCustomerRepository(log, postgresDB)
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	loanRepo := postgres.NewLoanRepository(log, postgresDB)
	repaymentRepo := postgres.NewRepaymentRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	trxRepo := mongo.NewTransactionRepository(log, mongoDB.Database())

	// Initialize services
	customerService := service.NewCustomerService(log, postgresDB, customerRepo, accountRepo)
	accountService := service.NewAccountService(log, postgresDB, accountRepo, customerRepo, outboxRepo, trxRepo)
	loanService := service.NewLoanService(log, postgresDB, loanRepo, repaymentRepo, accountRepo, customerRepo, outboxRepo, trxRepo, cfg.Loan)
	transactionService := service.NewTransactionService(log, trxRepo)

	// Initialize REST server
	server := back_office.NewServer(log, cfg, customerService, accountService, loanService, transactionService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
