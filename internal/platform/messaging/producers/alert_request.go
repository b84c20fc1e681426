package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-office/internal/config"
	"github.com/segmentio/kafka-go"
)

type AlertMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new alert producer and ensures topic exists
func NewAlertMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AlertMessageProducer, error) {
	if cfg.AlertTopic == "" {
		return nil, fmt.Errorf("kafka alert topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for alert producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.AlertTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure alert topic %s exists for alert producer: %w", cfg.AlertTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.AlertTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.AlertTopic, "count", len(messages))
			}
		},
	}

	return &AlertMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.AlertTopic,
	}, nil
}

func (p *AlertMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for alert producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via alert producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via alert producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via alert producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *AlertMessageProducer) Close() error {
	p.logger.Info("Closing alert Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close alert kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
