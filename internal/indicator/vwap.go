package indicator

// VWAP returns the volume-weighted average price over the trailing window.
// Windows with zero total volume are reported as not ready.
func VWAP(prices, volumes []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period || len(volumes) < period {
		return 0, false
	}
	pw := prices[len(prices)-period:]
	vw := volumes[len(volumes)-period:]

	var notional, volume float64
	for i := 0; i < period; i++ {
		notional += pw[i] * vw[i]
		volume += vw[i]
	}
	if volume == 0 {
		return 0, false
	}
	return notional / volume, true
}
