package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAlertMessage   = errors.New("alert message cannot be empty")
	ErrEmptyAlertRecipient = errors.New("alert recipient cannot be empty")
)

// AlertRequest defines a Kafka message for SMS alert delivery
type AlertRequest struct {
	AlertID       uuid.UUID `json:"alert_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Recipient     string    `json:"recipient"`
	Message       string    `json:"message"`
	ReferenceID   uuid.UUID `json:"reference_id"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate checks the request carries enough to attempt delivery
func (r *AlertRequest) Validate() error {
	if r.Recipient == "" {
		return ErrEmptyAlertRecipient
	}
	if r.Message == "" {
		return ErrEmptyAlertMessage
	}
	return nil
}
