package risk

import (
	"math"
	"sort"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// EngineConfig contains the computation parameters for the risk engine.
type EngineConfig struct {
	// ConfidenceLevel for VaR/CVaR, in (0, 1). Defaults to 0.95.
	ConfidenceLevel float64
	// RiskFreeRate is the annual risk-free rate used by Sharpe/Sortino.
	RiskFreeRate float64
	// PeriodsPerYear converts the annual risk-free rate to per-period.
	// Defaults to 365, one valuation per calendar day.
	PeriodsPerYear int
	// OnCoerce is invoked with the field name each time a non-finite
	// intermediate value is coerced to zero. Optional.
	OnCoerce func(field string)
}

// Engine computes the portfolio risk-metric bundle from a valuation
// history. It holds no state across calls: every invocation is a pure
// function of its inputs, so concurrent use needs no locking.
type Engine struct {
	config EngineConfig
	log    *logger.Logger
}

// NewEngine creates a risk engine, applying defaults for unset parameters.
func NewEngine(config EngineConfig) *Engine {
	if config.ConfidenceLevel <= 0 || config.ConfidenceLevel >= 1 {
		config.ConfidenceLevel = 0.95
	}
	if config.PeriodsPerYear <= 0 {
		config.PeriodsPerYear = 365
	}
	return &Engine{
		config: config,
		log:    logger.GetLogger("risk.engine"),
	}
}

// Compute derives the full metric bundle for one portfolio from its
// time-ordered valuation series (oldest first).
//
// It fails with an InsufficientData error when fewer than three samples
// (or fewer than two usable returns) are supplied, and with an
// InvalidArgument error on non-finite or negative valuations. It never
// partially populates a bundle: the result is either complete and fully
// finite, or an error. A valid but flat series yields an all-zero bundle
// with Status "degenerate" so callers can tell it apart from a failure.
func (e *Engine) Compute(portfolioID string, valuations models.ValuationSeries) (*models.RiskMetrics, error) {
	if err := validateSeries(valuations); err != nil {
		return nil, err
	}

	returns, excluded := deriveReturns(valuations)
	if excluded > 0 {
		e.log.Warnf("excluded %d undefined returns for portfolio %s (zero-value samples)", excluded, portfolioID)
	}
	if len(returns) < minSamples-1 {
		return nil, insufficientReturns(len(returns))
	}

	meanReturn := mean(returns)
	volatility := sampleStdDev(returns)
	rfPerPeriod := e.config.RiskFreeRate / float64(e.config.PeriodsPerYear)

	var sharpe, sortino float64
	if volatility > 0 {
		sharpe = (meanReturn - rfPerPeriod) / volatility
	}
	if dd := downsideDeviation(returns, rfPerPeriod); dd > 0 {
		sortino = (meanReturn - rfPerPeriod) / dd
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	latestValue := valuations[len(valuations)-1].ValueUSD
	cutoff := percentile(sorted, 1-e.config.ConfidenceLevel)

	// A loss reports as a positive magnitude; a profitable cutoff floors
	// at zero rather than flipping sign.
	valueAtRisk := math.Max(0, -cutoff*latestValue)

	var tailSum float64
	tailCount := 0
	for _, r := range sorted {
		if r > cutoff {
			break
		}
		tailSum += r
		tailCount++
	}
	conditionalVaR := valueAtRisk
	if tailCount > 0 {
		conditionalVaR = math.Max(valueAtRisk, -tailSum/float64(tailCount)*latestValue)
	}

	values := make([]float64, len(valuations))
	for i, v := range valuations {
		values[i] = v.ValueUSD
	}

	metrics := models.NewRiskMetrics(portfolioID)
	metrics.ValueAtRisk = e.sanitize("value_at_risk", valueAtRisk)
	metrics.ConditionalVaR = e.sanitize("conditional_var", conditionalVaR)
	metrics.SharpeRatio = e.sanitize("sharpe_ratio", sharpe)
	metrics.SortinoRatio = e.sanitize("sortino_ratio", sortino)
	metrics.Volatility = e.sanitize("volatility", volatility)
	metrics.MaxDrawdown = e.sanitize("max_drawdown", maxDrawdown(values))
	metrics.Skewness = e.sanitize("skewness", skewness(returns, meanReturn, volatility))
	metrics.Kurtosis = e.sanitize("kurtosis", kurtosis(returns, meanReturn, volatility))

	if metrics.Volatility == 0 {
		metrics.Status = models.RiskStatusDegenerate
	}

	return metrics, nil
}

// sanitize coerces a non-finite value to zero and makes the coercion
// observable. Recurring coercions indicate an upstream data-quality
// problem, not a computation bug.
func (e *Engine) sanitize(field string, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.log.Warnf("coerced non-finite %s to 0", field)
		if e.config.OnCoerce != nil {
			e.config.OnCoerce(field)
		}
		return 0
	}
	return v
}
