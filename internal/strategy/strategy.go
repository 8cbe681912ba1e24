// Package strategy implements the trading strategy state machines.
//
// A strategy consumes price ticks, maintains per-product rolling indicator
// state, and emits buy/sell signals after crossover detection and movement
// filtering. Indicator state stays warm in every mode, including stopped;
// stopped only suppresses emission and trade execution.
package strategy

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"signal-systemv1/internal/events"
	"signal-systemv1/internal/execution"
	"signal-systemv1/internal/ledger"
	"signal-systemv1/internal/logger"
	"signal-systemv1/internal/metrics"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/portfolio"
)

// Mode is a strategy's run mode.
type Mode string

const (
	// ModeStopped disables signal emission and trade execution.
	ModeStopped Mode = "stopped"
	// ModeSimulation records hypothetical trades checked against the live
	// portfolio snapshot; the real order-execution sink is never called.
	ModeSimulation Mode = "simulation"
	// ModeActive sends orders to the live order-execution sink.
	ModeActive Mode = "active"
)

// PositionState is the signal-gating position per product. It tracks signal
// direction, not ledger holdings.
type PositionState int

const (
	PositionNone PositionState = iota
	PositionLong
	PositionShort
)

func (p PositionState) String() string {
	switch p {
	case PositionLong:
		return "long"
	case PositionShort:
		return "short"
	default:
		return "none"
	}
}

// Lifecycle errors, surfaced synchronously to the caller.
var (
	ErrAlreadyRunning  = errors.New("strategy: already running")
	ErrNotRunning      = errors.New("strategy: not running")
	ErrUnknownStrategy = errors.New("strategy: unknown strategy kind")
	ErrInvalidMode     = errors.New("strategy: invalid mode")
	ErrLiveUnavailable = errors.New("strategy: live execution not configured")
)

// Strategy is the common contract of all strategy state machines.
type Strategy interface {
	// Name returns the strategy's unique name ("sma", "rsi", "macd").
	Name() string

	// Mode returns the current run mode.
	Mode() Mode

	// Start transitions stopped → simulation or active, resetting the
	// session's ledger and per-product signal state.
	Start(mode Mode) error

	// Stop transitions any running mode → stopped.
	Stop() error

	// SetMode switches a running strategy between simulation and active,
	// starting a fresh measurement session.
	SetMode(mode Mode) error

	// OnPriceUpdate feeds one tick. Must be called from a single dispatch
	// goroutine; ticks for the same product must arrive in timestamp order.
	OnPriceUpdate(tick model.Tick)

	// UpdateParameters validates and atomically swaps the configuration.
	UpdateParameters(p Params) error

	// Parameters returns the current configuration.
	Parameters() Params

	// Indicators returns the latest indicator snapshot for a product.
	// Nil when the product has not accumulated enough data.
	Indicators(product model.ProductID) map[string]float64

	// Performance returns the shared ledger's summary marked to the latest
	// known prices.
	Performance() ledger.Summary
}

// Deps are the collaborators a strategy receives at construction time.
type Deps struct {
	Sink    events.Sink
	Sim     execution.OrderExecutor // used in simulation mode
	Live    execution.OrderExecutor // used in active mode
	Ledger  *ledger.Ledger
	Quotes  *portfolio.Quotes
	Journal *execution.Journal // optional, best-effort persistence
	Metrics *metrics.Metrics   // optional
	Log     *slog.Logger
}

// core holds the runtime state shared by all strategy kinds: mode, parameters,
// and the per-product signal-gating maps. Strategy-specific indicator state
// lives in the embedding struct and is cleared via the reset hook.
type core struct {
	mu     sync.Mutex
	name   string
	mode   Mode
	params Params
	deps   Deps

	lastSignalPrice map[model.ProductID]float64
	position        map[model.ProductID]PositionState

	// onSessionReset clears strategy-specific indicator gates. Rolling
	// windows are not cleared; they stay warm across sessions.
	onSessionReset func()
}

func newCore(name string, params Params, deps Deps) core {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Sink == nil {
		// No transport configured: emissions still land in the log.
		deps.Sink = &events.LogSink{Log: deps.Log}
	}
	return core{
		name:            name,
		mode:            ModeStopped,
		params:          params,
		deps:            deps,
		lastSignalPrice: make(map[model.ProductID]float64),
		position:        make(map[model.ProductID]PositionState),
	}
}

func (c *core) Name() string { return c.name }

func (c *core) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *core) Parameters() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

func (c *core) Start(mode Mode) error {
	if mode != ModeSimulation && mode != ModeActive {
		return ErrInvalidMode
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == ModeActive && c.deps.Live == nil {
		return ErrLiveUnavailable
	}
	if c.mode != ModeStopped {
		return ErrAlreadyRunning
	}
	c.mode = mode
	c.resetSession()
	c.deps.Log.Info("strategy started", slog.String("strategy", c.name), slog.String("mode", string(mode)))
	return nil
}

func (c *core) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeStopped {
		return ErrNotRunning
	}
	c.mode = ModeStopped
	c.deps.Log.Info("strategy stopped", slog.String("strategy", c.name))
	return nil
}

func (c *core) SetMode(mode Mode) error {
	if mode != ModeSimulation && mode != ModeActive {
		return ErrInvalidMode
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == ModeActive && c.deps.Live == nil {
		return ErrLiveUnavailable
	}
	if c.mode == ModeStopped {
		return ErrNotRunning
	}
	if c.mode == mode {
		return nil
	}
	c.mode = mode
	c.resetSession()
	c.deps.Log.Info("strategy mode changed", slog.String("strategy", c.name), slog.String("mode", string(mode)))
	return nil
}

// resetSession starts a fresh measurement window: performance numbers and
// signal gates reflect only the current session. Callers hold c.mu.
func (c *core) resetSession() {
	c.lastSignalPrice = make(map[model.ProductID]float64)
	c.position = make(map[model.ProductID]PositionState)
	c.deps.Ledger.Reset()
	if c.onSessionReset != nil {
		c.onSessionReset()
	}
}

func (c *core) Performance() ledger.Summary {
	return c.deps.Ledger.Summary(c.deps.Quotes.Marks())
}

// running reports whether emission and execution are enabled. Callers hold c.mu.
func (c *core) running() bool { return c.mode != ModeStopped }

// executor returns the order executor for the current mode. Callers hold c.mu.
func (c *core) executor() execution.OrderExecutor {
	if c.mode == ModeActive {
		return c.deps.Live
	}
	return c.deps.Sim
}

// emitCrossover publishes the low-weight visualization event and counts it.
// Callers hold c.mu.
func (c *core) emitCrossover(cross model.Crossover) {
	cross.Strategy = c.name
	c.deps.Sink.Emit(events.EventCrossover, cross)
	if c.deps.Metrics != nil {
		c.deps.Metrics.CrossoversTotal.WithLabelValues(c.name, string(cross.Type)).Inc()
	}
}

// fireSignal emits a trade signal and executes it in the current mode.
//
// The position and lastSignalPrice maps are written before the execution call
// is issued, closing the race between crossover detection and flagging: a
// duplicate tick arriving while execution is pending cannot re-trigger the
// same crossover. On execution failure both are rolled back so a later
// qualifying crossover can retry; the emitted signal itself is not retried.
// Callers hold c.mu.
func (c *core) fireSignal(sig model.Signal, newPos PositionState) {
	sig.Strategy = c.name

	product := sig.Product
	prevPos := c.position[product]
	prevLast, hadLast := c.lastSignalPrice[product]

	c.position[product] = newPos
	c.lastSignalPrice[product] = sig.Price

	c.deps.Sink.Emit(events.EventSignal, sig)
	if c.deps.Metrics != nil {
		c.deps.Metrics.SignalsTotal.WithLabelValues(c.name, string(sig.Type)).Inc()
	}

	// One trace ID per signal ties the order call and its log lines to the
	// originating tick.
	ctx := logger.WithTraceID(context.Background(), logger.GenerateTraceID(product, sig.TS))

	trade, err := c.executeSignal(ctx, sig)
	if err != nil {
		c.position[product] = prevPos
		if hadLast {
			c.lastSignalPrice[product] = prevLast
		} else {
			delete(c.lastSignalPrice, product)
		}
		if c.deps.Metrics != nil {
			c.deps.Metrics.ExecutionFailures.WithLabelValues(c.name).Inc()
		}
		args := []any{
			slog.String("strategy", c.name),
			slog.String("product", product.String()),
			slog.String("type", string(sig.Type)),
			slog.Any("error", err),
		}
		c.deps.Log.Warn("trade execution failed", append(args, logger.LogWithTrace(ctx)...)...)
		return
	}

	if c.deps.Metrics != nil {
		simulated := "false"
		if trade.Simulated {
			simulated = "true"
		}
		c.deps.Metrics.TradesTotal.WithLabelValues(string(trade.Side), simulated).Inc()
	}
	args := []any{
		slog.String("strategy", c.name),
		slog.String("product", product.String()),
		slog.String("side", string(trade.Side)),
		slog.Float64("amount", trade.Amount),
		slog.Float64("price", trade.Price),
		slog.Bool("simulated", trade.Simulated),
	}
	c.deps.Log.Info("trade recorded", append(args, logger.LogWithTrace(ctx)...)...)
}

// executeSignal places the order and records the resulting fill in the shared
// ledger. Callers hold c.mu.
func (c *core) executeSignal(ctx context.Context, sig model.Signal) (model.Trade, error) {
	exec := c.executor()

	var (
		fill execution.Fill
		err  error
	)
	if sig.Type == model.SignalBuy {
		fill, err = exec.ExecuteBuyOrder(ctx, sig.Product, c.params.TradeAmount)
	} else {
		fill, err = exec.ExecuteSellOrder(ctx, sig.Product, c.params.TradeAmount)
	}
	if err != nil {
		return model.Trade{}, err
	}

	trade, err := c.deps.Ledger.RecordTrade(fill.Product, fill.Side, fill.Amount, fill.Price, fill.Fees, fill.Simulated)
	if err != nil {
		return model.Trade{}, err
	}

	if c.deps.Journal != nil {
		if jerr := c.deps.Journal.Record(trade, c.name); jerr != nil {
			c.deps.Log.Warn("journal write failed", slog.Any("error", jerr))
		}
	}
	return trade, nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
