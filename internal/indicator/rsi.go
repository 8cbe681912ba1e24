package indicator

// RSI returns the Relative Strength Index over the last period price deltas.
//
// Gains and losses are averaged over the window (Wilder-style seed average),
// then RSI = 100 - 100/(1+avgGain/avgLoss). Returns 100 when the window holds
// no losses. The result is always within [0, 100].
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
