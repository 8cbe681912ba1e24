package strategy

import (
	"fmt"
	"math"

	"signal-systemv1/internal/model"
)

// MACDCrossover trades histogram zero-line crossings.
//
// Fast and slow EMAs run incrementally per product; their difference is the
// MACD line, smoothed by a signal-period EMA. The histogram is MACD minus
// signal. A bullish signal fires when the histogram crosses from at-or-below
// zero to above; bearish is the mirror.
type MACDCrossover struct {
	core
	products map[model.ProductID]*macdState
}

type macdState struct {
	fast macdEMA
	slow macdEMA
	sig  macdEMA

	macd     float64
	signal   float64
	hist     float64
	haveHist bool
	prevHist float64
	havePrev bool

	// recentHist holds the last few histogram magnitudes for confidence
	// normalization.
	recentHist []float64
}

// macdEMA is an incremental EMA seeded with the simple average of the first
// period samples.
type macdEMA struct {
	period int
	mult   float64
	sum    float64
	count  int
	value  float64
	ready  bool
}

func newMACDEMA(period int) macdEMA {
	return macdEMA{period: period, mult: 2.0 / float64(period+1)}
}

func (e *macdEMA) update(v float64) (float64, bool) {
	if !e.ready {
		e.sum += v
		e.count++
		if e.count < e.period {
			return 0, false
		}
		e.value = e.sum / float64(e.period)
		e.ready = true
		return e.value, true
	}
	e.value = (v-e.value)*e.mult + e.value
	return e.value, true
}

const macdHistWindow = 5

// NewMACDCrossover creates a MACD crossover strategy in stopped mode.
func NewMACDCrossover(params Params, deps Deps) (*MACDCrossover, error) {
	if err := params.validateMACD(); err != nil {
		return nil, err
	}
	s := &MACDCrossover{
		core:     newCore("macd", params, deps),
		products: make(map[model.ProductID]*macdState),
	}
	return s, nil
}

// UpdateParameters validates and atomically swaps the configuration. Changing
// the periods rebuilds the per-product EMA state from scratch.
func (s *MACDCrossover) UpdateParameters(p Params) error {
	if err := p.validateMACD(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.FastPeriod != s.params.FastPeriod || p.SlowPeriod != s.params.SlowPeriod || p.SignalPeriod != s.params.SignalPeriod {
		s.products = make(map[model.ProductID]*macdState)
	}
	s.params = p
	return nil
}

func (s *MACDCrossover) OnPriceUpdate(tick model.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := tick.Price
	st, ok := s.products[tick.Product]
	if !ok {
		st = &macdState{
			fast: newMACDEMA(s.params.FastPeriod),
			slow: newMACDEMA(s.params.SlowPeriod),
			sig:  newMACDEMA(s.params.SignalPeriod),
		}
		s.products[tick.Product] = st
	}

	fast, fastOK := st.fast.update(price)
	slow, slowOK := st.slow.update(price)
	if !fastOK || !slowOK {
		return
	}
	st.macd = fast - slow

	sig, sigOK := st.sig.update(st.macd)
	if !sigOK {
		return
	}
	st.signal = sig
	st.prevHist, st.havePrev = st.hist, st.haveHist
	st.hist = st.macd - st.signal
	st.haveHist = true

	st.recentHist = append(st.recentHist, math.Abs(st.hist))
	if len(st.recentHist) > macdHistWindow {
		st.recentHist = st.recentHist[1:]
	}

	if !st.havePrev {
		return
	}

	bullish := st.prevHist <= 0 && st.hist > 0
	bearish := st.prevHist >= 0 && st.hist < 0
	if !bullish && !bearish {
		return
	}
	if !s.running() {
		return
	}
	if !s.movementOK(tick.Product, price) {
		return
	}

	sigType := model.SignalBuy
	if bearish {
		sigType = model.SignalSell
	}
	s.emitCrossover(model.Crossover{
		Type:    sigType,
		Product: tick.Product,
		Price:   price,
		Value:   st.hist,
		TS:      tick.TS,
	})

	pos := s.position[tick.Product]
	if bullish && pos == PositionLong {
		return // duplicate same-direction signal
	}
	if bearish && pos != PositionLong {
		return // nothing to exit
	}

	newPos := PositionLong
	direction := "above"
	if bearish {
		newPos = PositionNone
		direction = "below"
	}
	s.fireSignal(model.Signal{
		Type:    sigType,
		Product: tick.Product,
		Price:   price,
		Indicators: map[string]float64{
			"macd":      st.macd,
			"signal":    st.signal,
			"histogram": st.hist,
		},
		TS:         tick.TS,
		Reason:     fmt.Sprintf("MACD histogram crossed %s zero (%.4f)", direction, st.hist),
		Confidence: macdConfidence(st.hist, st.recentHist),
	}, newPos)
}

// Indicators returns the latest MACD snapshot for a product.
func (s *MACDCrossover) Indicators(product model.ProductID) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.products[product]
	if !ok || !st.haveHist {
		return nil
	}
	return map[string]float64{
		"macd":      st.macd,
		"signal":    st.signal,
		"histogram": st.hist,
	}
}

// macdConfidence scales the crossing histogram against its recent average
// magnitude: a cross twice the typical size reads as full confidence.
func macdConfidence(hist float64, recent []float64) float64 {
	if len(recent) == 0 {
		return 50
	}
	var sum float64
	for _, h := range recent {
		sum += h
	}
	avg := sum / float64(len(recent))
	if avg == 0 {
		return 50
	}
	return clampConfidence(math.Abs(hist) / avg * 50)
}
