package indicator

// emaOver walks the whole series: SMA seed over the first period values,
// then one smoothing step per remaining price.
func emaOver(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	ema, _ := SMA(prices[:period], period)
	k := Multiplier(period)
	for _, p := range prices[period:] {
		ema = (p-ema)*k + ema
	}
	return ema, true
}

// MACD returns the instantaneous MACD line: EMA(fast) - EMA(slow).
//
// The signal line is intentionally not computed here: it is an EMA over the
// MACD line's own history, which only the caller tracks across ticks.
func MACD(prices []float64, fastPeriod, slowPeriod int) (float64, bool) {
	fast, okF := emaOver(prices, fastPeriod)
	slow, okS := emaOver(prices, slowPeriod)
	if !okF || !okS {
		return 0, false
	}
	return fast - slow, true
}
