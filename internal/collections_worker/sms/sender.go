// Package sms abstracts outbound SMS delivery. The worker depends on the
// Sender interface only; wiring a real provider means implementing it.
package sms

import (
	"context"
	"log/slog"
)

// Sender delivers a rendered message to a phone number. Implementations
// must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, recipient, message string) error
}

// LogSender writes outgoing messages to the structured log instead of a
// provider gateway.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message. Never fails.
func (s *LogSender) Send(_ context.Context, recipient, message string) error {
	s.logger.Info("SMS dispatched",
		"recipient", recipient,
		"length", len(message),
	)
	return nil
}

var _ Sender = (*LogSender)(nil)
