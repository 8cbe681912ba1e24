// Package execution translates accepted trade signals into order fills:
// either against the live order-execution collaborator or a simulated fill
// checked against the current portfolio snapshot.
package execution

import (
	"context"
	"errors"
	"time"

	"signal-systemv1/internal/model"
)

// ErrInsufficientFunds is returned when the account cannot cover an order.
// Strategies treat it as non-fatal: logged, no trade recorded, state retained.
var ErrInsufficientFunds = errors.New("execution: insufficient funds")

// Fill is the outcome of a successfully executed order.
type Fill struct {
	OrderID   string          `json:"order_id"`
	Product   model.ProductID `json:"product_id"`
	Side      model.Side      `json:"side"`
	Amount    float64         `json:"amount"`
	Price     float64         `json:"price"`
	Fees      float64         `json:"fees"`
	Simulated bool            `json:"simulated"`
	FilledAt  time.Time       `json:"filled_at"`
}

// OrderExecutor is the order-execution collaborator contract. Implementations
// must return an error rather than panic or hang: live executors impose a
// bounded timeout and treat timeout as failure.
type OrderExecutor interface {
	ExecuteBuyOrder(ctx context.Context, product model.ProductID, amount float64) (Fill, error)
	ExecuteSellOrder(ctx context.Context, product model.ProductID, amount float64) (Fill, error)
}
