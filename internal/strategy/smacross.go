package strategy

import (
	"fmt"
	"math"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
)

// SMACrossover detects price crossing its simple moving average.
//
// Bullish: previous price was at or below the previous SMA and the current
// price is above the current SMA. Bearish: the mirror image. The very first
// tick with a ready SMA has no previous value to compare against; if price is
// already above the SMA an initial buy is generated once, gated by a
// per-product flag, so a strategy started mid-trend enters exactly one
// position instead of firing repeatedly on stale state.
type SMACrossover struct {
	core
	products map[model.ProductID]*smaState
}

type smaState struct {
	history   []float64
	lastPrice float64
	lastSMA   float64
	haveLast  bool
	sma       float64
	haveSMA   bool

	// initialBuyDone gates the warmup entry described above.
	initialBuyDone bool
}

// NewSMACrossover creates an SMA crossover strategy in stopped mode.
func NewSMACrossover(params Params, deps Deps) (*SMACrossover, error) {
	if err := params.validateSMA(); err != nil {
		return nil, err
	}
	s := &SMACrossover{
		core:     newCore("sma", params, deps),
		products: make(map[model.ProductID]*smaState),
	}
	s.onSessionReset = func() {
		for _, st := range s.products {
			st.initialBuyDone = false
		}
	}
	return s, nil
}

// UpdateParameters validates and atomically swaps the configuration.
func (s *SMACrossover) UpdateParameters(p Params) error {
	if err := p.validateSMA(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	return nil
}

// OnPriceUpdate feeds one tick. Indicator state is updated in every mode;
// emission and execution only happen while running.
func (s *SMACrossover) OnPriceUpdate(tick model.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := tick.Price
	st, ok := s.products[tick.Product]
	if !ok {
		st = &smaState{}
		s.products[tick.Product] = st
	}

	// Bounded history: 2x period caps memory while keeping a full window.
	st.history = append(st.history, price)
	if limit := 2 * s.params.Period; len(st.history) > limit {
		st.history = st.history[len(st.history)-limit:]
	}

	sma, ready := indicator.SMA(st.history, s.params.Period)
	defer func() {
		st.lastPrice = price
		if ready {
			st.lastSMA = sma
			st.sma = sma
			st.haveSMA = true
			st.haveLast = true
		}
	}()
	if !ready {
		return
	}

	var bullish, bearish bool
	if !st.haveLast {
		// First ready tick: no previous SMA to cross. Price already above
		// the line counts as the one-time initial entry.
		if price > sma && !st.initialBuyDone {
			st.initialBuyDone = true
			bullish = true
		}
	} else {
		bullish = st.lastPrice <= st.lastSMA && price > sma
		bearish = st.lastPrice >= st.lastSMA && price < sma
		if bullish {
			st.initialBuyDone = true
		}
	}
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
		Value:   sma,
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
	reason := fmt.Sprintf("price %.2f crossed above SMA(%d) %.2f", price, s.params.Period, sma)
	if bearish {
		newPos = PositionNone
		reason = fmt.Sprintf("price %.2f crossed below SMA(%d) %.2f", price, s.params.Period, sma)
	}

	s.fireSignal(model.Signal{
		Type:    sigType,
		Product: tick.Product,
		Price:   price,
		Indicators: map[string]float64{
			"sma":   sma,
			"price": price,
		},
		TS:         tick.TS,
		Reason:     reason,
		Confidence: smaConfidence(price, sma),
	}, newPos)
}

// smaConfidence scales with how far price has diverged from the SMA line.
func smaConfidence(price, sma float64) float64 {
	if sma == 0 {
		return 0
	}
	divergencePct := math.Abs(price-sma) / sma * 100
	return clampConfidence(divergencePct * 20)
}

// Indicators returns the latest SMA snapshot for a product.
func (s *SMACrossover) Indicators(product model.ProductID) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.products[product]
	if !ok || !st.haveSMA {
		return nil
	}
	return map[string]float64{
		"sma":   st.sma,
		"price": st.lastPrice,
	}
}
