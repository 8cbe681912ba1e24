package model

import "time"

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is an immutable record of an executed (or simulated) order fill.
type Trade struct {
	ID          string    `json:"id"`
	TS          time.Time `json:"ts"`
	Product     ProductID `json:"product_id"`
	Side        Side      `json:"side"`
	Amount      float64   `json:"amount"`
	Price       float64   `json:"price"`
	Fees        float64   `json:"fees"`
	Simulated   bool      `json:"simulated"`
	RealizedPnL float64   `json:"realized_pnl"` // non-zero only for SELL
}

// Notional returns the trade value in quote currency.
func (t *Trade) Notional() float64 {
	return t.Amount * t.Price
}
