package strategy

import (
	"math"

	"signal-systemv1/internal/model"
)

// movementOK applies the movement filter: a crossover is accepted only when
// the price has moved at least minMovementPct percent relative to the price
// of the previous signal for that product. The first signal for a product is
// always allowed. Callers hold c.mu.
func (c *core) movementOK(product model.ProductID, price float64) bool {
	last, ok := c.lastSignalPrice[product]
	if !ok || last == 0 {
		return true
	}
	movedPct := math.Abs(price-last) / last * 100
	if movedPct >= c.params.MinMovementPct {
		return true
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.CrossoversFiltered.WithLabelValues(c.name).Inc()
	}
	return false
}
