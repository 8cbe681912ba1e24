package strategy

import (
	"fmt"

	"signal-systemv1/internal/model"
)

// RSIThreshold trades oversold/overbought RSI extremes.
//
// Buy when RSI falls to or below the oversold threshold and the product is
// not already long; sell when RSI rises to or above the overbought threshold
// and the product is not already short. The position resets to none once RSI
// re-enters the neutral band (oversold+10, overbought-10), re-arming both
// directions. An extreme is level-triggered, so each oversold or overbought
// episode fires at most one attempt: RSI pinned past a threshold does not
// re-signal until it leaves the zone and comes back.
type RSIThreshold struct {
	core
	products map[model.ProductID]*rsiState
}

// rsiZone classifies an RSI reading against the configured thresholds.
type rsiZone int

const (
	zoneNeutral rsiZone = iota
	zoneOversold
	zoneOverbought
)

type rsiState struct {
	gains     []float64 // FIFO window, length <= period
	losses    []float64
	prevPrice float64
	havePrev  bool
	rsi       float64
	haveRSI   bool
	zone      rsiZone // zone of the previous reading, gates one attempt per episode
}

// NewRSIThreshold creates an RSI threshold strategy in stopped mode.
func NewRSIThreshold(params Params, deps Deps) (*RSIThreshold, error) {
	if err := params.validateRSI(); err != nil {
		return nil, err
	}
	s := &RSIThreshold{
		core:     newCore("rsi", params, deps),
		products: make(map[model.ProductID]*rsiState),
	}
	s.onSessionReset = func() {
		for _, st := range s.products {
			st.zone = zoneNeutral
		}
	}
	return s, nil
}

// UpdateParameters validates and atomically swaps the configuration.
func (s *RSIThreshold) UpdateParameters(p Params) error {
	if err := p.validateRSI(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	return nil
}

func (s *RSIThreshold) OnPriceUpdate(tick model.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := tick.Price
	st, ok := s.products[tick.Product]
	if !ok {
		st = &rsiState{}
		s.products[tick.Product] = st
	}

	if !st.havePrev {
		st.prevPrice = price
		st.havePrev = true
		return
	}

	delta := price - st.prevPrice
	st.prevPrice = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	st.gains = append(st.gains, gain)
	st.losses = append(st.losses, loss)
	if len(st.gains) > s.params.Period {
		st.gains = st.gains[1:]
		st.losses = st.losses[1:]
	}
	if len(st.gains) < s.params.Period {
		return
	}

	var avgGain, avgLoss float64
	for i := range st.gains {
		avgGain += st.gains[i]
		avgLoss += st.losses[i]
	}
	avgGain /= float64(s.params.Period)
	avgLoss /= float64(s.params.Period)

	if avgLoss == 0 {
		st.rsi = 100
	} else {
		rs := avgGain / avgLoss
		st.rsi = 100 - 100/(1+rs)
	}
	st.haveRSI = true

	oversold := s.params.Oversold
	overbought := s.params.Overbought
	pos := s.position[tick.Product]

	zone := zoneNeutral
	switch {
	case st.rsi <= oversold:
		zone = zoneOversold
	case st.rsi >= overbought:
		zone = zoneOverbought
	}
	entered := zone != st.zone
	st.zone = zone

	if zone == zoneNeutral {
		// Neutral band re-arms the state machine for the next extreme.
		if pos != PositionNone && st.rsi > oversold+10 && st.rsi < overbought-10 {
			s.position[tick.Product] = PositionNone
		}
		return
	}
	// One attempt per episode. A failed or filtered attempt is not retried
	// while RSI stays pinned in the zone.
	if !entered {
		return
	}

	var sigType model.SignalType
	var newPos PositionState
	var confidence float64
	var reason string

	switch {
	case zone == zoneOversold && pos != PositionLong:
		sigType = model.SignalBuy
		newPos = PositionLong
		confidence = clampConfidence((oversold - st.rsi) / oversold * 100)
		reason = fmt.Sprintf("RSI(%d) %.1f at or below oversold %.1f", s.params.Period, st.rsi, oversold)
	case zone == zoneOverbought && pos != PositionShort:
		sigType = model.SignalSell
		newPos = PositionShort
		confidence = clampConfidence((st.rsi - overbought) / (100 - overbought) * 100)
		reason = fmt.Sprintf("RSI(%d) %.1f at or above overbought %.1f", s.params.Period, st.rsi, overbought)
	default:
		return
	}

	if !s.running() {
		return
	}
	if !s.movementOK(tick.Product, price) {
		return
	}

	s.emitCrossover(model.Crossover{
		Type:    sigType,
		Product: tick.Product,
		Price:   price,
		Value:   st.rsi,
		TS:      tick.TS,
	})

	s.fireSignal(model.Signal{
		Type:    sigType,
		Product: tick.Product,
		Price:   price,
		Indicators: map[string]float64{
			"rsi":      st.rsi,
			"avg_gain": avgGain,
			"avg_loss": avgLoss,
		},
		TS:         tick.TS,
		Reason:     reason,
		Confidence: confidence,
	}, newPos)
}

// Indicators returns the latest RSI snapshot for a product.
func (s *RSIThreshold) Indicators(product model.ProductID) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.products[product]
	if !ok || !st.haveRSI {
		return nil
	}
	return map[string]float64{"rsi": st.rsi}
}
