package kafka

import (
	"context"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"

	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// MessageHandler processes one consumed message. Returning an error skips
// the commit so the message is redelivered.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads one topic within a consumer group and dispatches each
// message to a handler.
type Consumer struct {
	reader *kafka.Reader
	topic  string
	log    *logger.Logger
}

// NewConsumer creates a consumer for the given topic
func NewConsumer(cfg ClientConfig, topic string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return &Consumer{
		reader: reader,
		topic:  topic,
		log:    logger.GetLogger("kafka.consumer." + topic),
	}
}

// Run fetches and handles messages until the context is cancelled or the
// reader is closed. Handler failures are logged and the message is left
// uncommitted.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	c.log.Infof("consuming topic %s", c.topic)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.log.Errorf("handler failed for message at offset %d: %v", msg.Offset, err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Errorf("failed to commit offset %d: %v", msg.Offset, err)
		}
	}
}

// Lag returns the consumer's current lag estimate
func (c *Consumer) Lag() int64 {
	return c.reader.Lag()
}

// Close shuts down the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
