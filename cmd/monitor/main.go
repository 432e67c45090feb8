package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arshadjafri/defi-risk-platform/config"
	"github.com/arshadjafri/defi-risk-platform/internal/kafka"
	"github.com/arshadjafri/defi-risk-platform/internal/monitor"
	"github.com/arshadjafri/defi-risk-platform/internal/risk"
	"github.com/arshadjafri/defi-risk-platform/internal/store"
	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("monitor.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("monitor.main")
	log.Infof("Starting %s portfolio monitor", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	portfolios := store.NewInMemoryPortfolioStore()
	history := store.NewInMemoryHistoryStore()
	seedPortfolios(portfolios, log)

	kafkaCfg := kafka.ClientConfigFromApp(cfg.Kafka)
	producer := kafka.NewProducer(kafkaCfg)
	defer producer.Close()

	assessor := risk.NewAssessor(
		risk.AssessorConfig{
			ConfidenceLevel:    cfg.Risk.ConfidenceLevel,
			RiskFreeRate:       cfg.Risk.RiskFreeRate,
			PeriodsPerYear:     cfg.Risk.PeriodsPerYear,
			DefaultHistoryDays: cfg.Risk.HistoryDays,
		},
		portfolios,
		history,
		producer,
		recorder,
	)

	mon := monitor.New(
		monitor.Config{
			Rules: monitor.RuleConfig{
				RiskScoreThreshold: cfg.Monitor.RiskScoreThreshold,
				VaRLimitFraction:   cfg.Monitor.VaRLimitFraction,
			},
			CheckInterval: cfg.Monitor.CheckInterval,
			HistoryDays:   cfg.Risk.HistoryDays,
		},
		portfolios,
		assessor,
		producer,
		recorder,
	)

	var promServer *metrics.PrometheusServer
	if cfg.Metrics.Enabled {
		promServer = metrics.NewPrometheusServer(cfg.Metrics.Port)
		go func() {
			if err := promServer.Start(); err != nil {
				log.Errorf("Prometheus server error: %v", err)
			}
		}()
	}

	// Sweeps catch slow drift; the risk.metrics consumer reacts to
	// bundles computed on demand by the API service.
	metricsConsumer := kafka.NewConsumer(kafkaCfg, kafkaCfg.Topics.RiskMetrics)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mon.Run(ctx); err != nil {
			log.Errorf("Monitor stopped with error: %v", err)
		}
	}()

	go func() {
		if err := metricsConsumer.Run(ctx, mon.HandleMetrics); err != nil {
			log.Errorf("Risk metrics consumer stopped with error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infof("Received signal %v, initiating shutdown", sig)

	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Error("Monitor did not stop in time")
	}

	if err := metricsConsumer.Close(); err != nil {
		log.Errorf("Risk metrics consumer shutdown error: %v", err)
	}

	if promServer != nil {
		if err := promServer.Stop(); err != nil {
			log.Errorf("Prometheus server shutdown error: %v", err)
		}
	}

	log.Info("Shutdown complete")
}

// seedPortfolios installs demo portfolios so a fresh monitor instance has
// something to sweep before the API service creates real ones.
func seedPortfolios(portfolios *store.InMemoryPortfolioStore, log *logger.Logger) {
	demo := models.NewPortfolio("demo-user", "0x742d35Cc6634C0532925a3b844Bc9e7595f8fA8e")
	demo.TotalValueUSD = 15046.05
	demo.RiskScore = 55.0
	demo.DiversificationScore = 72.0

	if err := portfolios.SavePortfolio(demo); err != nil {
		log.Warnf("failed to seed demo portfolio: %v", err)
		return
	}
	log.Infof("seeded demo portfolio %s", demo.ID)
}
