package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-office/internal/collections_worker/service"
	"github.com/microfin-loan-office/internal/domain/shared"
	"github.com/microfin-loan-office/internal/platform/messaging/producers"
)

// AlertEventHandler handles incoming customer alert messages from Kafka
type AlertEventHandler struct {
	dispatchService service.DispatchService
	producer        producers.DeadLetterPublisher
	logger          *slog.Logger
}

// NewAlertEventHandler creates a new handler
func NewAlertEventHandler(
	logger *slog.Logger,
	dispatchService service.DispatchService,
	producer producers.DeadLetterPublisher,
) *AlertEventHandler {
	return &AlertEventHandler{
		dispatchService: dispatchService,
		producer:        producer,
		logger:          logger,
	}
}

// HandleMessage processes Kafka messages
func (h *AlertEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.AlertRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal alert request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received alert request for delivery",
		"alert_id", request.AlertID.String(),
		"customer_id", request.CustomerID.String(),
	)

	if err := h.dispatchService.DispatchAlert(ctx, &request); err != nil {
		logger.Error("Failed to dispatch alert",
			"alert_id", request.AlertID.String(),
			"customer_id", request.CustomerID.String(),
			"error", err,
		)
		return fmt.Errorf("dispatching alert %s failed: %w", request.AlertID.String(), err)
	}

	logger.Info("Successfully dispatched alert", "alert_id", request.AlertID.String())
	return nil // Success, commit offset
}
