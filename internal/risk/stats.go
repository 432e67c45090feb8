package risk

import "math"

// mean returns the arithmetic mean of xs, 0 for an empty slice.
// Summation is naive left-to-right; documented as the one source of
// cross-implementation divergence at the 1e-9 scale.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev returns the n-1 standard deviation of xs, 0 when fewer
// than two samples are present.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// downsideDeviation is the sample standard deviation of the returns that
// fall below the threshold (the per-period risk-free rate by convention).
func downsideDeviation(returns []float64, threshold float64) float64 {
	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < threshold {
			downside = append(downside, r)
		}
	}
	return sampleStdDev(downside)
}

// skewness is the standardized third moment about the sample mean,
// 0 when the spread is zero.
func skewness(returns []float64, m, stdDev float64) float64 {
	if stdDev == 0 || len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		z := (r - m) / stdDev
		sum += z * z * z
	}
	return sum / float64(len(returns))
}

// kurtosis is the excess standardized fourth moment (normal = 0),
// 0 when the spread is zero.
func kurtosis(returns []float64, m, stdDev float64) float64 {
	if stdDev == 0 || len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		z := (r - m) / stdDev
		sum += z * z * z * z
	}
	return sum/float64(len(returns)) - 3
}

// percentile returns the p-quantile (p in [0,1]) of an ascending-sorted
// slice using linear interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// maxDrawdown returns the most negative peak-to-trough fraction over the
// valuation values, in [-1, 0]. Zero-valued peaks are skipped so a
// zero-funded portfolio cannot divide by zero.
func maxDrawdown(values []float64) float64 {
	var peak, worst float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (v - peak) / peak
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
