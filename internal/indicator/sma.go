// Package indicator provides technical indicator calculations over price series.
//
// Every function is a pure one-shot computation over the trailing window of its
// inputs: no hidden state, no side effects, never panics. The second return
// value reports whether enough data was available; callers treat a false as
// "skip this tick".
package indicator

// SMA returns the simple moving average of the last period values.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// Multiplier returns the exponential smoothing factor 2/(period+1).
func Multiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

// EMA returns the exponential moving average of prices.
//
// With hasPrev false the value is seeded with SMA(prices, period). With a
// previous EMA it applies one smoothing step against the last price:
// (last - prev) * 2/(period+1) + prev.
func EMA(prices []float64, period int, prev float64, hasPrev bool) (float64, bool) {
	if period <= 0 || len(prices) == 0 {
		return 0, false
	}
	if !hasPrev {
		return SMA(prices, period)
	}
	last := prices[len(prices)-1]
	return (last-prev)*Multiplier(period) + prev, true
}
