package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"signal-systemv1/internal/model"
	"signal-systemv1/pkg/broker"
)

const defaultOrderTimeout = 10 * time.Second

// LiveExecutor places real orders through the broker client. Every call is
// bounded by a timeout; a timed-out order is reported as a plain failure so
// the strategy records nothing and can retry at the next qualifying crossover.
type LiveExecutor struct {
	client  *broker.Client
	timeout time.Duration
	log     *slog.Logger
}

// NewLiveExecutor wraps a broker client. timeout <= 0 selects the default.
func NewLiveExecutor(client *broker.Client, timeout time.Duration, log *slog.Logger) *LiveExecutor {
	if timeout <= 0 {
		timeout = defaultOrderTimeout
	}
	return &LiveExecutor{client: client, timeout: timeout, log: log}
}

func (e *LiveExecutor) ExecuteBuyOrder(ctx context.Context, product model.ProductID, amount float64) (Fill, error) {
	return e.execute(ctx, product, model.SideBuy, amount)
}

func (e *LiveExecutor) ExecuteSellOrder(ctx context.Context, product model.ProductID, amount float64) (Fill, error) {
	return e.execute(ctx, product, model.SideSell, amount)
}

func (e *LiveExecutor) execute(ctx context.Context, product model.ProductID, side model.Side, amount float64) (Fill, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	order, err := e.client.PlaceMarketOrder(ctx, product.String(), string(side), amount)
	if err != nil {
		if errors.Is(err, broker.ErrInsufficientFunds) {
			return Fill{}, fmt.Errorf("%w: %s %v %s", ErrInsufficientFunds, side, amount, product)
		}
		e.log.Warn("order execution failed",
			slog.String("product", product.String()),
			slog.String("side", string(side)),
			slog.Float64("amount", amount),
			slog.Any("error", err))
		return Fill{}, fmt.Errorf("execution: place order: %w", err)
	}

	return Fill{
		OrderID:  order.OrderID,
		Product:  product,
		Side:     side,
		Amount:   order.Size,
		Price:    order.Price,
		Fees:     order.Fees,
		FilledAt: time.Now().UTC(),
	}, nil
}
