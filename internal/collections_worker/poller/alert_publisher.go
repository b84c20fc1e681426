package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-office/internal/domain/outbox"
	"github.com/microfin-loan-office/internal/domain/shared"
	"github.com/microfin-loan-office/internal/platform/messaging/producers"
)

// AlertPublisher publishes outbox messages to the alert topic
type AlertPublisher interface {
	PublishAlert(ctx context.Context, message *outbox.Message) error
}

// AlertPublisherImpl implements AlertPublisher
type AlertPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewAlertPublisher creates a new publisher
func NewAlertPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) AlertPublisher {
	return &AlertPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishAlert turns an outbox row into an alert request on the topic and
// marks the row PROCESSED. A payload that cannot be decoded is unfixable
// and goes straight to FAILED_TO_PUBLISH.
func (p *AlertPublisherImpl) PublishAlert(ctx context.Context, message *outbox.Message) error {
	alert, err := message.GetAlert()
	if err != nil {
		p.logger.Error("Failed to unmarshal alert from outbox payload",
			"outbox_id", message.ID, "alert_id", message.AlertID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	request := &shared.AlertRequest{
		AlertID:     alert.ID,
		CustomerID:  alert.CustomerID,
		Recipient:   alert.Recipient,
		Message:     alert.Message,
		ReferenceID: alert.ReferenceID,
		Timestamp:   alert.CreatedAt,
	}

	p.logger.Info("Attempting to publish outbox message to alert topic", "outbox_id", message.ID, "alert_id", alert.ID)

	if err := p.producer.Publish(ctx, alert.ID.String(), request); err != nil {
		p.logger.Error("Failed to publish alert request", "outbox_id", message.ID, "alert_id", alert.ID, "error", err)
		return fmt.Errorf("failed to publish alert %s: %w", alert.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "alert_id", alert.ID, "error", err,
		)
		return fmt.Errorf("alert %s published, but failed to mark outbox %d as PROCESSED: %w", alert.ID, message.ID, err)
	}

	p.logger.Info("Outbox message successfully published and marked as PROCESSED", "outbox_id", message.ID, "alert_id", alert.ID)
	return nil
}
