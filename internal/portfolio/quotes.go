package portfolio

import (
	"sync"

	"signal-systemv1/internal/model"
)

// Quotes tracks the latest known price per product. The tick dispatcher writes
// it on every price update; the ledger and simulated executor read it.
type Quotes struct {
	mu    sync.RWMutex
	marks map[model.ProductID]float64
}

// NewQuotes creates an empty quote table.
func NewQuotes() *Quotes {
	return &Quotes{marks: make(map[model.ProductID]float64)}
}

// Update records the latest price for a product.
func (q *Quotes) Update(product model.ProductID, price float64) {
	q.mu.Lock()
	q.marks[product] = price
	q.mu.Unlock()
}

// Price returns the latest known price for a product.
func (q *Quotes) Price(product model.ProductID) (float64, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	p, ok := q.marks[product]
	return p, ok
}

// Marks returns a snapshot of all latest prices, suitable for ledger marking.
func (q *Quotes) Marks() map[model.ProductID]float64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	cp := make(map[model.ProductID]float64, len(q.marks))
	for k, v := range q.marks {
		cp[k] = v
	}
	return cp
}
