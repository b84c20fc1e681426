package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/microfin-loan-office/internal/domain/notification"
	"github.com/microfin-loan-office/internal/domain/shared"
)

// Message stores a pending customer alert for reliable Kafka publishing.
// Alerts are written in the same database transaction as the balance change
// that caused them, so delivery can never block or outrun the posting.
type Message struct {
	ID            int64               `json:"id"`
	AlertID       uuid.UUID           `json:"alert_id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(alert *notification.Alert) (*Message, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return nil, err
	}

	return &Message{
		AlertID:    alert.ID,
		CustomerID: alert.CustomerID,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetAlert extracts the customer alert from the payload
func (m *Message) GetAlert() (*notification.Alert, error) {
	var alert notification.Alert
	if err := json.Unmarshal(m.Payload, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
