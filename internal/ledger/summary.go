package ledger

import "signal-systemv1/internal/model"

// recentTradeCount is how many of the latest trades a Summary carries.
const recentTradeCount = 50

// Summary is a point-in-time performance snapshot.
type Summary struct {
	TotalTrades int `json:"total_trades"`
	BuyTrades   int `json:"buy_trades"`
	SellTrades  int `json:"sell_trades"`
	WinTrades   int `json:"win_trades"`
	LossTrades  int `json:"loss_trades"`

	WinRate       float64 `json:"win_rate"` // percent of closed trades
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"`
	TotalFees     float64 `json:"total_fees"`
	TotalVolume   float64 `json:"total_volume"` // notional traded, quote currency
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	NetProfit     float64 `json:"net_profit"` // realized + unrealized - fees
	MaxDrawdown   float64 `json:"max_drawdown"`

	OpenPositions int           `json:"open_positions"`
	RecentTrades  []model.Trade `json:"recent_trades"` // newest first
}

// Summary builds a performance snapshot, marking open positions to the latest
// known prices. Products missing from marks contribute no unrealized P&L.
func (l *Ledger) Summary(marks map[model.ProductID]float64) Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	unrealized := 0.0
	for product, pos := range l.positions {
		if mark, ok := marks[product]; ok {
			unrealized += pos.UnrealizedPnL(mark)
		}
	}

	winRate := 0.0
	if closed := l.winCount + l.lossCount; closed > 0 {
		winRate = float64(l.winCount) / float64(closed) * 100
	}

	n := len(l.trades)
	recent := make([]model.Trade, 0, recentTradeCount)
	for i := n - 1; i >= 0 && len(recent) < recentTradeCount; i-- {
		recent = append(recent, l.trades[i])
	}

	return Summary{
		TotalTrades:   l.buyCount + l.sellCount,
		BuyTrades:     l.buyCount,
		SellTrades:    l.sellCount,
		WinTrades:     l.winCount,
		LossTrades:    l.lossCount,
		WinRate:       winRate,
		GrossProfit:   l.grossProfit,
		GrossLoss:     l.grossLoss,
		TotalFees:     l.totalFees,
		TotalVolume:   l.totalVolume,
		RealizedPnL:   l.realizedPnL,
		UnrealizedPnL: unrealized,
		NetProfit:     l.realizedPnL + unrealized - l.totalFees,
		MaxDrawdown:   l.maxDrawdown,
		OpenPositions: len(l.positions),
		RecentTrades:  recent,
	}
}
