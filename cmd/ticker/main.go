package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arshadjafri/defi-risk-platform/config"
	"github.com/arshadjafri/defi-risk-platform/internal/kafka"
	"github.com/arshadjafri/defi-risk-platform/internal/market"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("ticker.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("ticker.main")
	log.Infof("Starting %s market ticker", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := kafka.NewProducer(kafka.ClientConfigFromApp(cfg.Kafka))
	defer producer.Close()

	sim := market.NewSimulator(market.SimulatorConfig{
		Symbols:  cfg.Ticker.Symbols,
		Interval: cfg.Ticker.Interval,
	}, producer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sim.Run(ctx); err != nil && err != context.Canceled {
			log.Errorf("Simulator stopped with error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infof("Received signal %v, initiating shutdown", sig)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Error("Simulator did not stop in time")
	}

	log.Info("Shutdown complete")
}
