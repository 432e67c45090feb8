package kafka

import (
	"github.com/arshadjafri/defi-risk-platform/config"
)

// Topics carries the topic names the platform publishes and consumes.
type Topics struct {
	MarketTicks string
	RiskMetrics string
	RiskAlerts  string
}

// ClientConfig is the shared broker configuration for producers and
// consumers.
type ClientConfig struct {
	Brokers  []string
	GroupID  string
	MinBytes int
	MaxBytes int
	Topics   Topics
}

// ClientConfigFromApp maps the application Kafka config onto the client
// configuration.
func ClientConfigFromApp(cfg config.KafkaConfig) ClientConfig {
	return ClientConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		Topics: Topics{
			MarketTicks: cfg.Topics.MarketTicks,
			RiskMetrics: cfg.Topics.RiskMetrics,
			RiskAlerts:  cfg.Topics.RiskAlerts,
		},
	}
}
