package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/microfin-loan-office/internal/domain/shared"
)

// MockDispatchService mocks the DispatchService interface
type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) DispatchAlert(ctx context.Context, request *shared.AlertRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func sampleAlertRequest() *shared.AlertRequest {
	return &shared.AlertRequest{
		AlertID:       uuid.New(),
		CustomerID:    uuid.New(),
		Recipient:     "+2348012345678",
		Message:       "Acct: 20******13\nTrx Type: Savings Deposit\nAmount: NGN5,000.00\nBalance: NGN30,000.00\nDate: 02/03/2026 10:15",
		ReferenceID:   uuid.New(),
		CorrelationID: "corr1",
		Timestamp:     time.Now(),
	}
}

func TestWorkerPoolDispatchService_DispatchAlert(t *testing.T) {
	logger := slog.Default()
	request := sampleAlertRequest()

	tests := []struct {
		name          string
		setupMocks    func(m *MockDispatchService)
		expectedError error
	}{
		{
			name: "successful dispatch",
			setupMocks: func(m *MockDispatchService) {
				m.On("DispatchAlert", mock.Anything, request).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "dispatch error",
			setupMocks: func(m *MockDispatchService) {
				m.On("DispatchAlert", mock.Anything, request).Return(errors.New("provider unavailable")).Once()
			},
			expectedError: errors.New("provider unavailable"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBaseService := &MockDispatchService{}

			workerPoolService, err := NewWorkerPoolDispatchService(
				mockBaseService,
				WorkerPoolConfig{
					Size: 2,
				},
				logger,
			)
			assert.NoError(t, err)
			defer workerPoolService.Shutdown()

			tt.setupMocks(mockBaseService)
			ctx := context.Background()

			err = workerPoolService.DispatchAlert(ctx, request)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockBaseService.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolDispatchService_Concurrency(t *testing.T) {
	mockBaseService := &MockDispatchService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolDispatchService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 5,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	var mu sync.Mutex
	counter := 0

	mockBaseService.On("DispatchAlert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Simulate provider latency
		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		counter++
		mu.Unlock()
	}).Return(nil)

	numRequests := 10
	var wg sync.WaitGroup
	wg.Add(numRequests)

	for i := 0; i < numRequests; i++ {
		go func() {
			defer wg.Done()

			ctx := context.Background()
			err := workerPoolService.DispatchAlert(ctx, sampleAlertRequest())
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, numRequests, counter)

	assert.True(t, workerPoolService.Running() > 0)
	assert.Equal(t, 5, workerPoolService.Capacity())
}
