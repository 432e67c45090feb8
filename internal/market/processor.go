package market

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/arshadjafri/defi-risk-platform/internal/risk"
	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// ProcessorConfig contains configuration for the tick processor
type ProcessorConfig struct {
	Workers   int
	QueueSize int
}

// MarketStore receives the latest quote per symbol.
type MarketStore interface {
	SaveMarketData(data *models.MarketData) error
}

// PortfolioStore supplies the portfolios to revalue on each tick.
type PortfolioStore interface {
	GetAllPortfolios() ([]*models.Portfolio, error)
	SavePortfolio(portfolio *models.Portfolio) error
}

// HistoryStore records the valuation samples produced by revaluation.
type HistoryStore interface {
	AppendValuation(portfolioID string, point models.ValuationPoint) error
}

// Processor consumes market price ticks, updates the latest-quote store
// and revalues every portfolio holding the ticked symbol. Revaluations
// append a valuation sample so the risk engine always works on fresh
// history.
type Processor struct {
	config     ProcessorConfig
	market     MarketStore
	portfolios PortfolioStore
	history    HistoryStore
	recorder   *metrics.Recorder
	ticks      chan models.PriceTick
	wg         sync.WaitGroup
	revalueMu  sync.Mutex
	log        *logger.Logger
}

// NewProcessor creates a tick processor
func NewProcessor(config ProcessorConfig, market MarketStore, portfolios PortfolioStore, history HistoryStore, recorder *metrics.Recorder) *Processor {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	return &Processor{
		config:     config,
		market:     market,
		portfolios: portfolios,
		history:    history,
		recorder:   recorder,
		ticks:      make(chan models.PriceTick, config.QueueSize),
		log:        logger.GetLogger("market.processor"),
	}
}

// Start launches the worker pool. Workers drain the queue until the
// context is cancelled.
func (p *Processor) Start(ctx context.Context) {
	p.log.Infof("starting %d tick workers", p.config.Workers)
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case tick := <-p.ticks:
					p.processTick(tick)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// HandleMessage decodes a tick from the market.ticks topic and enqueues
// it for processing. It satisfies the Kafka consumer's handler contract.
func (p *Processor) HandleMessage(ctx context.Context, _ []byte, value []byte) error {
	var tick models.PriceTick
	if err := json.Unmarshal(value, &tick); err != nil {
		return errors.Wrap(err, "failed to decode price tick")
	}
	if tick.Symbol == "" {
		return errors.InvalidArgument("price tick has no symbol")
	}

	select {
	case p.ticks <- tick:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) processTick(tick models.PriceTick) {
	start := time.Now()

	if err := p.market.SaveMarketData(models.NewMarketData(tick)); err != nil {
		p.log.Errorf("failed to save market data for %s: %v", tick.Symbol, err)
		return
	}

	p.revaluePortfolios(tick)
	p.recorder.RecordTick(tick.Symbol, tick.Price, time.Since(start))
}

// revaluePortfolios reprices every holding of the ticked symbol and
// refreshes the portfolio summary scores. The read-modify-write cycle is
// serialized across workers; two concurrent ticks for different symbols
// held by the same portfolio must not overwrite each other's repricing.
func (p *Processor) revaluePortfolios(tick models.PriceTick) {
	p.revalueMu.Lock()
	defer p.revalueMu.Unlock()

	portfolios, err := p.portfolios.GetAllPortfolios()
	if err != nil {
		p.log.Errorf("failed to list portfolios: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, portfolio := range portfolios {
		touched := false
		total := 0.0
		for i := range portfolio.Tokens {
			token := &portfolio.Tokens[i]
			if token.Symbol == tick.Symbol {
				token.PriceUSD = tick.Price
				token.ValueUSD = token.Balance * tick.Price
				token.Change24h = tick.Change24h
				token.Timestamp = now
				touched = true
			}
			total += token.ValueUSD
		}
		if !touched {
			continue
		}

		portfolio.TotalValueUSD = total
		portfolio.RiskScore = risk.ScorePortfolio(portfolio.Tokens)
		portfolio.DiversificationScore = risk.DiversificationScore(portfolio.Tokens)
		portfolio.UpdatedAt = now

		if err := p.portfolios.SavePortfolio(portfolio); err != nil {
			p.log.Errorf("failed to save revalued portfolio %s: %v", portfolio.ID, err)
			continue
		}

		err := p.history.AppendValuation(portfolio.ID, models.ValuationPoint{
			Timestamp: now,
			ValueUSD:  total,
		})
		if err != nil {
			p.log.Errorf("failed to append valuation for portfolio %s: %v", portfolio.ID, err)
		}
	}
}
