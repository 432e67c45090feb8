package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// Producer publishes platform events. One writer serves all topics; the
// topic is set per message.
type Producer struct {
	writer *kafka.Writer
	topics Topics
	log    *logger.Logger
}

// NewProducer creates a producer for the configured brokers
func NewProducer(cfg ClientConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{
		writer: writer,
		topics: cfg.Topics,
		log:    logger.GetLogger("kafka.producer"),
	}
}

// PublishTick publishes a market price tick keyed by symbol
func (p *Producer) PublishTick(ctx context.Context, tick models.PriceTick) error {
	return p.publish(ctx, p.topics.MarketTicks, []byte(tick.Symbol), tick)
}

// PublishRiskMetrics publishes a computed risk bundle keyed by portfolio
func (p *Producer) PublishRiskMetrics(ctx context.Context, m *models.RiskMetrics) error {
	return p.publish(ctx, p.topics.RiskMetrics, []byte(m.PortfolioID), m)
}

// PublishAlert publishes a raised alert keyed by user
func (p *Producer) PublishAlert(ctx context.Context, alert *models.Alert) error {
	return p.publish(ctx, p.topics.RiskAlerts, []byte(alert.UserID), alert)
}

func (p *Producer) publish(ctx context.Context, topic string, key []byte, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message for topic "+topic)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		p.log.Errorf("failed to publish to %s: %v", topic, err)
		return errors.Wrap(err, "failed to publish to topic "+topic)
	}

	return nil
}

// Close shuts down the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
