package execution

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"signal-systemv1/internal/model"
	"signal-systemv1/internal/portfolio"
)

// SimExecutor produces hypothetical fills at the latest known price. It
// checks affordability against the paper balance snapshot; simulated trades
// never touch the real account.
type SimExecutor struct {
	balances portfolio.BalanceProvider
	quotes   *portfolio.Quotes
	feeRate  float64 // fraction of notional charged as fees, e.g. 0.0025
	orderSeq atomic.Int64
}

// NewSimExecutor creates a simulated executor.
func NewSimExecutor(balances portfolio.BalanceProvider, quotes *portfolio.Quotes, feeRate float64) *SimExecutor {
	return &SimExecutor{balances: balances, quotes: quotes, feeRate: feeRate}
}

func (e *SimExecutor) ExecuteBuyOrder(ctx context.Context, product model.ProductID, amount float64) (Fill, error) {
	return e.execute(ctx, product, model.SideBuy, amount)
}

func (e *SimExecutor) ExecuteSellOrder(ctx context.Context, product model.ProductID, amount float64) (Fill, error) {
	return e.execute(ctx, product, model.SideSell, amount)
}

func (e *SimExecutor) execute(ctx context.Context, product model.ProductID, side model.Side, amount float64) (Fill, error) {
	price, ok := e.quotes.Price(product)
	if !ok {
		return Fill{}, fmt.Errorf("execution: no quote for %s", product)
	}

	funds, err := e.balances.Balances(ctx)
	if err != nil {
		return Fill{}, fmt.Errorf("execution: fetch balances: %w", err)
	}

	notional := amount * price
	fees := notional * e.feeRate

	switch side {
	case model.SideBuy:
		if funds[product.Quote()] < notional+fees {
			return Fill{}, fmt.Errorf("%w: need %.2f %s", ErrInsufficientFunds, notional+fees, product.Quote())
		}
	case model.SideSell:
		if funds[product.Base()] < amount {
			return Fill{}, fmt.Errorf("%w: need %v %s", ErrInsufficientFunds, amount, product.Base())
		}
	}

	return Fill{
		OrderID:   fmt.Sprintf("SIM-%d", e.orderSeq.Add(1)),
		Product:   product,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Fees:      fees,
		Simulated: true,
		FilledAt:  time.Now().UTC(),
	}, nil
}
