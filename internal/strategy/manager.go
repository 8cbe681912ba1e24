package strategy

import (
	"context"
	"log/slog"
	"time"

	"signal-systemv1/internal/model"
	"signal-systemv1/internal/portfolio"
)

// Kind identifies a registered strategy.
type Kind string

const (
	KindSMA  Kind = "sma"
	KindRSI  Kind = "rsi"
	KindMACD Kind = "macd"
)

// Manager owns the fixed set of strategies and routes ticks to all of them.
//
// Every registered strategy receives every tick regardless of mode, so
// indicator windows stay warm while a strategy is stopped and a later Start
// does not begin from cold history.
type Manager struct {
	strategies map[Kind]Strategy
	quotes     *portfolio.Quotes
	deps       Deps
}

// NewManager builds the closed set of strategies. Construction fails if any
// strategy rejects its initial parameters.
func NewManager(params map[Kind]Params, deps Deps) (*Manager, error) {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	sma, err := NewSMACrossover(params[KindSMA], deps)
	if err != nil {
		return nil, err
	}
	rsi, err := NewRSIThreshold(params[KindRSI], deps)
	if err != nil {
		return nil, err
	}
	macd, err := NewMACDCrossover(params[KindMACD], deps)
	if err != nil {
		return nil, err
	}
	return &Manager{
		strategies: map[Kind]Strategy{
			KindSMA:  sma,
			KindRSI:  rsi,
			KindMACD: macd,
		},
		quotes: deps.Quotes,
		deps:   deps,
	}, nil
}

// Strategy returns the strategy of the given kind.
func (m *Manager) Strategy(kind Kind) (Strategy, error) {
	s, ok := m.strategies[kind]
	if !ok {
		return nil, ErrUnknownStrategy
	}
	return s, nil
}

// Kinds returns the registered strategy kinds.
func (m *Manager) Kinds() []Kind {
	return []Kind{KindSMA, KindRSI, KindMACD}
}

// Start transitions the strategy of the given kind into the given mode.
func (m *Manager) Start(kind Kind, mode Mode) error {
	s, err := m.Strategy(kind)
	if err != nil {
		return err
	}
	return s.Start(mode)
}

// Stop transitions the strategy of the given kind to stopped.
func (m *Manager) Stop(kind Kind) error {
	s, err := m.Strategy(kind)
	if err != nil {
		return err
	}
	return s.Stop()
}

// SetMode switches a running strategy between simulation and active.
func (m *Manager) SetMode(kind Kind, mode Mode) error {
	s, err := m.Strategy(kind)
	if err != nil {
		return err
	}
	return s.SetMode(mode)
}

// UpdateParameters validates and applies new parameters for the given kind.
func (m *Manager) UpdateParameters(kind Kind, p Params) error {
	s, err := m.Strategy(kind)
	if err != nil {
		return err
	}
	return s.UpdateParameters(p)
}

// Dispatch feeds one tick to the quote table and to every strategy. Must be
// called from a single goroutine; ticks for the same product must arrive in
// timestamp order.
func (m *Manager) Dispatch(tick model.Tick) {
	start := time.Now()

	if m.quotes != nil {
		m.quotes.Update(tick.Product, tick.Price)
	}
	for _, s := range m.strategies {
		s.OnPriceUpdate(tick)
	}

	if m.deps.Metrics != nil {
		m.deps.Metrics.TicksTotal.Inc()
		m.deps.Metrics.TickProcessDur.Observe(time.Since(start).Seconds())
	}
}

// Run consumes ticks and dispatches them until ctx is cancelled or tickCh is
// closed. All running strategies are stopped on the way out.
func (m *Manager) Run(ctx context.Context, tickCh <-chan model.Tick) {
	defer m.StopAll()
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-tickCh:
			if !ok {
				return
			}
			m.Dispatch(tick)
		}
	}
}

// StopAll stops every running strategy. Already-stopped strategies are left
// alone.
func (m *Manager) StopAll() {
	for kind, s := range m.strategies {
		if err := s.Stop(); err == nil {
			m.deps.Log.Info("strategy stopped on shutdown", slog.String("strategy", string(kind)))
		}
	}
}
