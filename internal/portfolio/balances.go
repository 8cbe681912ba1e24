// Package portfolio provides the account-state collaborators the strategy
// layer consumes: per-currency balances for affordability checks and the
// latest known price per product for unrealized-P&L marking.
package portfolio

import (
	"context"
	"sync"
)

// BalanceProvider exposes current per-currency balances. Implementations are
// the live broker account and the in-memory provider used for simulation.
type BalanceProvider interface {
	// Balances returns available funds keyed by currency code ("USD", "BTC").
	Balances(ctx context.Context) (map[string]float64, error)
}

// MemoryBalances is an in-memory BalanceProvider for simulation and tests.
type MemoryBalances struct {
	mu    sync.RWMutex
	funds map[string]float64
}

// NewMemoryBalances creates a provider seeded with the given funds.
func NewMemoryBalances(funds map[string]float64) *MemoryBalances {
	cp := make(map[string]float64, len(funds))
	for k, v := range funds {
		cp[k] = v
	}
	return &MemoryBalances{funds: cp}
}

func (m *MemoryBalances) Balances(ctx context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]float64, len(m.funds))
	for k, v := range m.funds {
		cp[k] = v
	}
	return cp, nil
}

// Set overwrites the balance for a currency.
func (m *MemoryBalances) Set(currency string, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funds[currency] = amount
}
