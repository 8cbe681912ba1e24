package indicator

import "math"

// ATR returns the Average True Range over the last period bars.
// True range per bar is max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) < period+1 || len(lows) < period+1 {
		return 0, false
	}

	sum := 0.0
	for i := n - period; i < n; i++ {
		h := highs[len(highs)-n+i]
		l := lows[len(lows)-n+i]
		prev := closes[i-1]
		tr := h - l
		if d := math.Abs(h - prev); d > tr {
			tr = d
		}
		if d := math.Abs(l - prev); d > tr {
			tr = d
		}
		sum += tr
	}
	return sum / float64(period), true
}
