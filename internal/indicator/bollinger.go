package indicator

import "math"

// Bands holds a Bollinger Bands result.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// BollingerBands returns the bands over the last period values: middle is the
// SMA, upper/lower are middle ± stdDevMult times the population standard
// deviation of the window.
func BollingerBands(prices []float64, period int, stdDevMult float64) (Bands, bool) {
	middle, ok := SMA(prices, period)
	if !ok {
		return Bands{}, false
	}

	window := prices[len(prices)-period:]
	variance := 0.0
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(period))

	return Bands{
		Upper:  middle + stdDevMult*stdDev,
		Middle: middle,
		Lower:  middle - stdDevMult*stdDev,
	}, true
}
