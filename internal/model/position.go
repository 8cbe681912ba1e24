package model

// Position tracks an open holding for a single product.
// Invariant: Amount == 0 implies TotalCost == 0 (a closed position carries no cost).
type Position struct {
	Product   ProductID `json:"product_id"`
	Amount    float64   `json:"amount"`     // units held, never negative
	TotalCost float64   `json:"total_cost"` // quote-currency cost of the holding
}

// AvgPrice returns the weighted-average entry price. Zero for an empty position.
func (p *Position) AvgPrice() float64 {
	if p.Amount <= 0 {
		return 0
	}
	return p.TotalCost / p.Amount
}

// UnrealizedPnL marks the position to the given price.
func (p *Position) UnrealizedPnL(mark float64) float64 {
	if p.Amount <= 0 {
		return 0
	}
	return (mark - p.AvgPrice()) * p.Amount
}
