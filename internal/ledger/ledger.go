// Package ledger records executed and simulated trades, maintains per-product
// positions with weighted-average cost basis, and exposes realized/unrealized
// P&L, win rate, and drawdown for the strategy layer.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-systemv1/internal/model"
)

// maxTrades bounds the in-memory trade log; the oldest entries are evicted.
const maxTrades = 1000

var (
	// ErrNoPosition is returned for a SELL against a product with no open position.
	ErrNoPosition = errors.New("ledger: no open position")
)

// Ledger is the shared trade/performance store. One instance is shared by all
// strategy instances; all methods are safe for concurrent use.
type Ledger struct {
	mu        sync.RWMutex
	trades    []model.Trade
	positions map[model.ProductID]*model.Position

	buyCount  int
	sellCount int
	winCount  int
	lossCount int

	grossProfit float64
	grossLoss   float64
	totalFees   float64
	totalVolume float64 // sum of trade notionals in quote currency
	realizedPnL float64

	// Peak-to-trough tracking of cumulative realized equity.
	equity      float64
	peakEquity  float64
	maxDrawdown float64
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		trades:    make([]model.Trade, 0, maxTrades),
		positions: make(map[model.ProductID]*model.Position),
	}
}

// RecordTrade appends a trade and updates position and performance state.
//
// BUY trades grow the position at weighted-average cost. SELL trades realize
// P&L against the current average cost basis, shrink or clear the position,
// and are classified as a win or loss. A SELL larger than the open position
// is clamped to it.
func (l *Ledger) RecordTrade(product model.ProductID, side model.Side, amount, price, fees float64, simulated bool) (model.Trade, error) {
	if amount <= 0 {
		return model.Trade{}, fmt.Errorf("ledger: non-positive amount %v", amount)
	}
	if price <= 0 {
		return model.Trade{}, fmt.Errorf("ledger: non-positive price %v", price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	trade := model.Trade{
		ID:        uuid.NewString(),
		TS:        time.Now().UTC(),
		Product:   product,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Fees:      fees,
		Simulated: simulated,
	}

	switch side {
	case model.SideBuy:
		pos, ok := l.positions[product]
		if !ok {
			pos = &model.Position{Product: product}
			l.positions[product] = pos
		}
		pos.Amount += amount
		pos.TotalCost += amount * price
		l.buyCount++

	case model.SideSell:
		pos, ok := l.positions[product]
		if !ok || pos.Amount <= 0 {
			return model.Trade{}, ErrNoPosition
		}
		sold := amount
		if sold > pos.Amount {
			sold = pos.Amount
			trade.Amount = sold
		}
		avg := pos.AvgPrice()
		pnl := sold * (price - avg)
		trade.RealizedPnL = pnl

		pos.Amount -= sold
		pos.TotalCost -= sold * avg
		if pos.Amount <= 1e-12 {
			delete(l.positions, product)
		}

		l.sellCount++
		l.realizedPnL += pnl
		if pnl > 0 {
			l.winCount++
			l.grossProfit += pnl
		} else {
			l.lossCount++
			l.grossLoss -= pnl
		}

		l.equity += pnl
		if l.equity > l.peakEquity {
			l.peakEquity = l.equity
		}
		if dd := l.peakEquity - l.equity; dd > l.maxDrawdown {
			l.maxDrawdown = dd
		}

	default:
		return model.Trade{}, fmt.Errorf("ledger: unknown side %q", side)
	}

	l.totalFees += fees
	l.totalVolume += trade.Notional()
	l.trades = append(l.trades, trade)
	if len(l.trades) > maxTrades {
		l.trades = l.trades[len(l.trades)-maxTrades:]
	}

	return trade, nil
}

// Position returns the open position for a product, if any.
func (l *Ledger) Position(product model.ProductID) (model.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[product]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// Positions returns a snapshot of all open positions.
func (l *Ledger) Positions() []model.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	return out
}

// Trades returns a copy of the recorded trade log, oldest first.
func (l *Ledger) Trades() []model.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]model.Trade, len(l.trades))
	copy(cp, l.trades)
	return cp
}

// Reset clears all counters, trades, and positions. Called when a strategy
// session starts so performance numbers reflect only the current session.
// Calling Reset on an already-empty ledger is a no-op.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = l.trades[:0]
	l.positions = make(map[model.ProductID]*model.Position)
	l.buyCount = 0
	l.sellCount = 0
	l.winCount = 0
	l.lossCount = 0
	l.grossProfit = 0
	l.grossLoss = 0
	l.totalFees = 0
	l.totalVolume = 0
	l.realizedPnL = 0
	l.equity = 0
	l.peakEquity = 0
	l.maxDrawdown = 0
}
