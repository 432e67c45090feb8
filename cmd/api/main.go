package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arshadjafri/defi-risk-platform/config"
	"github.com/arshadjafri/defi-risk-platform/internal/kafka"
	"github.com/arshadjafri/defi-risk-platform/internal/market"
	"github.com/arshadjafri/defi-risk-platform/internal/risk"
	"github.com/arshadjafri/defi-risk-platform/internal/sentiment"
	"github.com/arshadjafri/defi-risk-platform/internal/store"
	"github.com/arshadjafri/defi-risk-platform/internal/ws"
	"github.com/arshadjafri/defi-risk-platform/pkg/api"
	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("api.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("api.main")
	log.Infof("Starting %s API service", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	portfolios := store.NewInMemoryPortfolioStore()
	history := store.NewInMemoryHistoryStore()
	marketData := store.NewInMemoryMarketStore()
	yields := store.NewInMemoryYieldStore()
	alerts := store.NewInMemoryAlertStore()
	sentiments := store.NewInMemorySentimentStore()
	riskMetrics := store.NewInMemoryRiskMetricsStore()

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

	aggregator := sentiment.NewAggregator(sentiments,
		sentiment.NewSyntheticSource("twitter", 500),
		sentiment.NewSyntheticSource("reddit", 200),
		sentiment.NewSyntheticSource("discord", 100),
	)

	hub := ws.NewHub(recorder)
	go hub.Run(ctx)

	processor := market.NewProcessor(
		market.ProcessorConfig{
			Workers:   cfg.Processor.Workers,
			QueueSize: cfg.Processor.BatchSize,
		},
		marketData,
		portfolios,
		history,
		recorder,
	)
	processor.Start(ctx)

	handlers := api.NewHandlers(api.HandlerDeps{
		Portfolios:  portfolios,
		History:     history,
		Market:      marketData,
		Yields:      yields,
		Alerts:      alerts,
		RiskMetrics: riskMetrics,
		Sentiments:  sentiments,
		Sentiment:   aggregator,
		Assessor:    assessor,
		Broadcast:   hub,
	})
	server := api.NewServer(
		api.Config{
			Host:         cfg.API.Host,
			Port:         cfg.API.Port,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
			RateLimit:    cfg.API.RateLimit,
			RateBurst:    cfg.API.RateBurst,
			Environment:  cfg.App.Environment,
		},
		handlers,
		hub,
		recorder,
	)

	tickConsumer := kafka.NewConsumer(kafkaCfg, kafkaCfg.Topics.MarketTicks)
	alertConsumer := kafka.NewConsumer(kafkaCfg, kafkaCfg.Topics.RiskAlerts)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return tickConsumer.Run(groupCtx, func(ctx context.Context, key, value []byte) error {
			if err := processor.HandleMessage(ctx, key, value); err != nil {
				return err
			}
			var tick models.PriceTick
			if err := json.Unmarshal(value, &tick); err == nil {
				hub.BroadcastMarketData(models.NewMarketData(tick))
			}
			return nil
		})
	})

	group.Go(func() error {
		return alertConsumer.Run(groupCtx, func(ctx context.Context, key, value []byte) error {
			var alert models.Alert
			if err := json.Unmarshal(value, &alert); err != nil {
				log.Warnf("dropping malformed alert message: %v", err)
				return nil
			}
			if err := alerts.SaveAlert(&alert); err != nil {
				return err
			}
			hub.BroadcastAlert(&alert)
			return nil
		})
	})

	group.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				recorder.RecordKafkaLag(kafkaCfg.Topics.MarketTicks, kafkaCfg.GroupID, tickConsumer.Lag())
				recorder.RecordKafkaLag(kafkaCfg.Topics.RiskAlerts, kafkaCfg.GroupID, alertConsumer.Lag())
			}
		}
	})

	group.Go(func() error {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Errorf("API server error: %v", err)
			return err
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		promServer := metrics.NewPrometheusServer(cfg.Metrics.Port)
		group.Go(func() error {
			if err := promServer.Start(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		defer promServer.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infof("Received signal %v, initiating shutdown", sig)
	case <-groupCtx.Done():
		log.Error("A component failed, initiating shutdown")
	}

	cancel()

	shutdownTimeout := cfg.API.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("API server shutdown error: %v", err)
	}
	if err := tickConsumer.Close(); err != nil {
		log.Errorf("Tick consumer shutdown error: %v", err)
	}
	if err := alertConsumer.Close(); err != nil {
		log.Errorf("Alert consumer shutdown error: %v", err)
	}
	processor.Wait()

	if err := group.Wait(); err != nil {
		log.Errorf("Shutdown finished with error: %v", err)
	}
	log.Info("Shutdown complete")
}
