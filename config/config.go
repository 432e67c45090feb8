package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application. The mapstructure tags must match the
// viper keys in setDefaults or Unmarshal drops the value.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	API       APIConfig       `mapstructure:"api"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Ticker    TickerConfig    `mapstructure:"ticker"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// General application configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// Configuration for Kafka
type KafkaConfig struct {
	Brokers  []string          `mapstructure:"brokers"`
	GroupID  string            `mapstructure:"group_id"`
	MinBytes int               `mapstructure:"min_bytes"`
	MaxBytes int               `mapstructure:"max_bytes"`
	Topics   KafkaTopicsConfig `mapstructure:"topics"`
}

// Kafka topics configuration
type KafkaTopicsConfig struct {
	MarketTicks string `mapstructure:"market_ticks"`
	RiskMetrics string `mapstructure:"risk_metrics"`
	RiskAlerts  string `mapstructure:"risk_alerts"`
}

// Configuration for risk computation
type RiskConfig struct {
	ConfidenceLevel float64 `mapstructure:"confidence_level"`
	RiskFreeRate    float64 `mapstructure:"risk_free_rate"`
	PeriodsPerYear  int     `mapstructure:"periods_per_year"`
	HistoryDays     int     `mapstructure:"history_days"`
}

// Configuration for the portfolio monitor
type MonitorConfig struct {
	RiskScoreThreshold float64       `mapstructure:"risk_score_threshold"`
	VaRLimitFraction   float64       `mapstructure:"var_limit_fraction"`
	CheckInterval      time.Duration `mapstructure:"check_interval"`
}

// Configuration for the market tick processor
type ProcessorConfig struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
}

// Configuration for the price tick feed
type TickerConfig struct {
	Symbols  []string      `mapstructure:"symbols"`
	Interval time.Duration `mapstructure:"interval"`
}

// Configuration for Prometheus metrics
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load reads the configuration from config.yaml and DEFI_-prefixed
// environment variables.
func Load() (*Config, error) {
	setDefaults()

	if p := os.Getenv("DEFI_CONFIG_PATH"); p != "" {
		viper.SetConfigFile(p)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("DEFI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "defi-risk-platform")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// API defaults
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "10s")
	viper.SetDefault("api.shutdown_timeout", "30s")
	viper.SetDefault("api.rate_limit", 100)
	viper.SetDefault("api.rate_burst", 200)

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.group_id", "defi-risk-platform")
	viper.SetDefault("kafka.min_bytes", 1)
	viper.SetDefault("kafka.max_bytes", 10e6)
	viper.SetDefault("kafka.topics.market_ticks", "market.ticks")
	viper.SetDefault("kafka.topics.risk_metrics", "risk.metrics")
	viper.SetDefault("kafka.topics.risk_alerts", "risk.alerts")

	// Risk defaults. Crypto trades every day, so a year is 365 periods.
	viper.SetDefault("risk.confidence_level", 0.95)
	viper.SetDefault("risk.risk_free_rate", 0.02)
	viper.SetDefault("risk.periods_per_year", 365)
	viper.SetDefault("risk.history_days", 30)

	// Monitor defaults
	viper.SetDefault("monitor.risk_score_threshold", 80.0)
	viper.SetDefault("monitor.var_limit_fraction", 0.25)
	viper.SetDefault("monitor.check_interval", "5m")

	// Processor defaults
	viper.SetDefault("processor.workers", 4)
	viper.SetDefault("processor.batch_size", 100)

	// Ticker defaults
	viper.SetDefault("ticker.symbols", []string{"BTC", "ETH", "USDC", "LINK", "UNI", "AAVE"})
	viper.SetDefault("ticker.interval", "2s")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
}
