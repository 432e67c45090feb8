package sentiment

import (
	"context"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/circuit"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// SentimentStore persists the aggregated readings.
type SentimentStore interface {
	SaveSentiment(data *models.SentimentData) error
}

type guardedSource struct {
	source  Source
	breaker *circuit.Breaker
}

// Aggregator queries sentiment sources and combines their readings into
// one record per symbol. Every source sits behind its own circuit
// breaker so a dead feed degrades the aggregate instead of failing it.
type Aggregator struct {
	sources map[string]guardedSource
	store   SentimentStore
	log     *logger.Logger
}

// NewAggregator creates an aggregator over the given sources.
func NewAggregator(store SentimentStore, sources ...Source) *Aggregator {
	guarded := make(map[string]guardedSource, len(sources))
	for _, src := range sources {
		guarded[src.Name()] = guardedSource{
			source:  src,
			breaker: circuit.NewBreaker("sentiment."+src.Name(), circuit.DefaultConfig()),
		}
	}
	return &Aggregator{
		sources: guarded,
		store:   store,
		log:     logger.GetLogger("sentiment.aggregator"),
	}
}

// SourceNames returns the names of all registered sources.
func (a *Aggregator) SourceNames() []string {
	names := make([]string, 0, len(a.sources))
	for name := range a.sources {
		names = append(names, name)
	}
	return names
}

// Analyze fetches sentiment for each symbol from the named sources and
// aggregates per symbol: scores and confidences average, volumes sum.
// An empty source list means all registered sources. Symbols for which
// every source failed are skipped.
func (a *Aggregator) Analyze(ctx context.Context, symbols, sourceNames []string) ([]*models.SentimentData, error) {
	if len(symbols) == 0 {
		return nil, errors.InvalidArgument("no symbols to analyze")
	}
	if len(sourceNames) == 0 {
		sourceNames = a.SourceNames()
	}

	results := make([]*models.SentimentData, 0, len(symbols))
	for _, symbol := range symbols {
		readings := a.collect(ctx, symbol, sourceNames)
		if len(readings) == 0 {
			a.log.Warnf("no sentiment sources available for %s", symbol)
			continue
		}

		var scoreSum, confSum float64
		volume := 0
		for _, r := range readings {
			scoreSum += r.SentimentScore
			confSum += r.Confidence
			volume += r.Volume
		}
		n := float64(len(readings))

		aggregated := models.NewSentimentData(symbol, "aggregated", scoreSum/n, confSum/n, volume, "")
		if err := a.store.SaveSentiment(aggregated); err != nil {
			a.log.Errorf("failed to save sentiment for %s: %v", symbol, err)
		}
		results = append(results, aggregated)
	}

	return results, nil
}

func (a *Aggregator) collect(ctx context.Context, symbol string, sourceNames []string) []*models.SentimentData {
	readings := make([]*models.SentimentData, 0, len(sourceNames))
	for _, name := range sourceNames {
		guarded, ok := a.sources[name]
		if !ok {
			a.log.Warnf("unknown sentiment source %q requested", name)
			continue
		}

		var reading *models.SentimentData
		err := guarded.breaker.Execute(ctx, func(ctx context.Context) error {
			var fetchErr error
			reading, fetchErr = guarded.source.Fetch(ctx, symbol)
			return fetchErr
		})
		if err != nil {
			a.log.Warnf("sentiment source %s failed for %s: %v", name, symbol, err)
			continue
		}
		readings = append(readings, reading)
	}
	return readings
}
