package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/microfin-loan-office/internal/domain/shared"
)

// WorkerPoolDispatchService fans alert delivery out over a bounded pool
type WorkerPoolDispatchService struct {
	baseService DispatchService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolDispatchService(
	baseService DispatchService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolDispatchService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolDispatchService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// DispatchAlert submits an alert to the worker pool and waits for the
// delivery result.
func (s *WorkerPoolDispatchService) DispatchAlert(ctx context.Context, request *shared.AlertRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Submitting alert to worker pool",
		"alert_id", request.AlertID.String(),
		"customer_id", request.CustomerID.String(),
	)

	resultChan := make(chan error, 1)

	alertID := request.AlertID.String()
	s.mu.Lock()
	s.results[alertID] = resultChan
	s.mu.Unlock()

	// Copy the request to avoid data races with the caller
	requestCopy := *request

	err := s.pool.Submit(func() {
		err := s.baseService.DispatchAlert(ctx, &requestCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, alertID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, alertID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit alert to worker pool",
			"alert_id", request.AlertID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolDispatchService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolDispatchService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolDispatchService) Capacity() int {
	return s.pool.Cap()
}
