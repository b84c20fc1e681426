package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-office/internal/collections_worker/sms"
	"github.com/microfin-loan-office/internal/domain/shared"
)

// DispatchServiceImpl hands alert requests to the SMS sender
type DispatchServiceImpl struct {
	sender sms.Sender
	logger *slog.Logger
}

// NewDispatchService creates a dispatch service backed by the given sender
func NewDispatchService(logger *slog.Logger, sender sms.Sender) DispatchService {
	return &DispatchServiceImpl{
		sender: sender,
		logger: logger,
	}
}

// DispatchAlert validates and sends a single alert. Invalid requests are
// dropped with a warning; they can never become deliverable by retrying.
func (s *DispatchServiceImpl) DispatchAlert(ctx context.Context, request *shared.AlertRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	if err := request.Validate(); err != nil {
		logger.Warn("Dropping undeliverable alert request",
			"alert_id", request.AlertID.String(),
			"customer_id", request.CustomerID.String(),
			"error", err,
		)
		return nil
	}

	if err := s.sender.Send(ctx, request.Recipient, request.Message); err != nil {
		logger.Error("Failed to send SMS alert",
			"alert_id", request.AlertID.String(),
			"customer_id", request.CustomerID.String(),
			"error", err,
		)
		return fmt.Errorf("sending alert %s failed: %w", request.AlertID.String(), err)
	}

	logger.Info("Alert delivered",
		"alert_id", request.AlertID.String(),
		"customer_id", request.CustomerID.String(),
	)
	return nil
}
