package indicator

// StochasticK returns the stochastic %K oscillator over the last period bars:
// position of the latest close within the window's high-low range, in [0, 100].
func StochasticK(highs, lows, closes []float64, period int) (float64, bool) {
	hi, lo, ok := windowRange(highs, lows, period)
	if !ok || len(closes) == 0 {
		return 0, false
	}
	if hi == lo {
		return 50, true // flat window, no direction
	}
	last := closes[len(closes)-1]
	return (last - lo) / (hi - lo) * 100, true
}

// WilliamsR returns Williams %R over the last period bars, in [-100, 0].
func WilliamsR(highs, lows, closes []float64, period int) (float64, bool) {
	hi, lo, ok := windowRange(highs, lows, period)
	if !ok || len(closes) == 0 {
		return 0, false
	}
	if hi == lo {
		return -50, true
	}
	last := closes[len(closes)-1]
	return (last - hi) / (hi - lo) * 100, true
}

// MFI returns the Money Flow Index over the last period bars: a volume-weighted
// RSI built from typical-price money flows, in [0, 100].
func MFI(highs, lows, closes, volumes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) < period+1 || len(lows) < period+1 || len(volumes) < period+1 {
		return 0, false
	}

	typical := func(i int) float64 {
		return (highs[len(highs)-n+i] + lows[len(lows)-n+i] + closes[i]) / 3
	}

	var positive, negative float64
	for i := n - period; i < n; i++ {
		tp := typical(i)
		flow := tp * volumes[len(volumes)-n+i]
		switch {
		case tp > typical(i-1):
			positive += flow
		case tp < typical(i-1):
			negative += flow
		}
	}

	if negative == 0 {
		return 100, true
	}
	ratio := positive / negative
	return 100 - 100/(1+ratio), true
}

// windowRange returns the highest high and lowest low over the trailing period.
func windowRange(highs, lows []float64, period int) (hi, lo float64, ok bool) {
	if period <= 0 || len(highs) < period || len(lows) < period {
		return 0, 0, false
	}
	hw := highs[len(highs)-period:]
	lw := lows[len(lows)-period:]
	hi, lo = hw[0], lw[0]
	for i := 1; i < period; i++ {
		if hw[i] > hi {
			hi = hw[i]
		}
		if lw[i] < lo {
			lo = lw[i]
		}
	}
	return hi, lo, true
}
