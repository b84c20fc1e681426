package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/microfin-loan-office/internal/collections_worker/consumer"
	"github.com/microfin-loan-office/internal/collections_worker/poller"
	"github.com/microfin-loan-office/internal/collections_worker/service"
	"github.com/microfin-loan-office/internal/collections_worker/sms"
	"github.com/microfin-loan-office/internal/config"
	"github.com/microfin-loan-office/internal/data/mongo"
	"github.com/microfin-loan-office/internal/data/postgres"
	"github.com/microfin-loan-office/internal/logger"
	"github.com/microfin-loan-office/internal/platform/messaging/consumers"
	"github.com/microfin-loan-office/internal/platform/messaging/producers"
	"github.com/microfin-loan-office/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("collections_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Collections Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka producers
	alertProducer, err := producers.NewAlertMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize alert Kafka producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler should be nil-safe.

	// Initialize the SMS dispatch pipeline behind a worker pool
	dispatchService := service.NewDispatchService(log, sms.NewLogSender(log))
	workerPoolService, err := service.NewWorkerPoolDispatchService(
		dispatchService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log.With("component", "worker_pool"),
	)
	if err != nil {
		log.Error("Failed to create worker pool dispatch service, falling back to direct dispatch", "error", err)
	} else {
		dispatchService = workerPoolService
	}

	// Initialize alert event handler
	alertEventHandler := consumer.NewAlertEventHandler(
		log,
		dispatchService,
		dlqProducer,
	)

	// Initialize outbox poller
	alertPublisher := poller.NewAlertPublisher(
		outboxRepo,
		alertProducer,
		log,
	)
	outboxPoller := poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		alertPublisher,
		log,
	)

	// Initialize collection sweeper
	sweeper := poller.NewSweeper(
		&cfg.Collection,
		postgresDB,
		loanRepo,
		repaymentRepo,
		accountRepo,
		customerRepo,
		outboxRepo,
		trxRepo,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.AlertTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.AlertTopic, cfg.Kafka.ConsumerGroup, alertEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxPoller.Start(appCtx)
	}()

	// Start collection sweeper in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool if it was created
	if workerPoolService != nil {
		log.Info("Shutting down worker pool", "running_workers", workerPoolService.Running())
		workerPoolService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka producers
	if err = alertProducer.Close(); err != nil {
		log.Error("Error closing alert Kafka producer", "error", err)
	}
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Collections Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Collections Worker shutdown completed with errors")
	} else {
		log.Info("Collections Worker shutdown completed successfully")
	}
}
