package risk

import (
	"math"
	"strconv"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
)

// minSamples is the smallest valuation series the engine accepts: three
// samples produce two returns, the minimum for a variance estimate.
const minSamples = 3

// validateSeries rejects malformed input before any computation so a bad
// sample cannot corrupt percentile or moment estimates downstream.
func validateSeries(valuations models.ValuationSeries) error {
	if len(valuations) < minSamples {
		return errors.InsufficientData("valuation series requires at least 3 samples")
	}
	for i, v := range valuations {
		if math.IsNaN(v.ValueUSD) || math.IsInf(v.ValueUSD, 0) {
			return errors.InvalidArgument("non-finite valuation at index " + strconv.Itoa(i))
		}
		if v.ValueUSD < 0 {
			return errors.InvalidArgument("negative valuation at index " + strconv.Itoa(i))
		}
	}
	return nil
}

// deriveReturns computes period-over-period fractional returns from a
// valuation series. Samples following a zero valuation are excluded rather
// than treated as zero returns; the exclusion count is returned so callers
// can surface the data-quality signal.
func deriveReturns(valuations models.ValuationSeries) ([]float64, int) {
	returns := make([]float64, 0, len(valuations)-1)
	excluded := 0
	for i := 1; i < len(valuations); i++ {
		prev := valuations[i-1].ValueUSD
		if prev == 0 {
			excluded++
			continue
		}
		r := (valuations[i].ValueUSD - prev) / prev
		if math.IsNaN(r) || math.IsInf(r, 0) {
			excluded++
			continue
		}
		returns = append(returns, r)
	}
	return returns, excluded
}

func insufficientReturns(n int) error {
	return errors.InsufficientData("only " + strconv.Itoa(n) + " usable returns after excluding zero-value samples, need at least 2")
}
