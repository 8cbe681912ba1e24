package strategy

import "fmt"

// Params is a strategy instance's immutable configuration. Each kind reads
// the fields relevant to it; UpdateParameters validates per kind and swaps
// the whole value atomically.
type Params struct {
	// Period is the SMA window for the SMA strategy and the RSI window for
	// the RSI strategy.
	Period int `json:"period" mapstructure:"period"`

	// MACD windows.
	FastPeriod   int `json:"fast_period" mapstructure:"fast_period"`
	SlowPeriod   int `json:"slow_period" mapstructure:"slow_period"`
	SignalPeriod int `json:"signal_period" mapstructure:"signal_period"`

	// RSI thresholds.
	Oversold   float64 `json:"oversold" mapstructure:"oversold"`
	Overbought float64 `json:"overbought" mapstructure:"overbought"`

	// TradeAmount is the base-currency size per order.
	TradeAmount float64 `json:"trade_amount" mapstructure:"trade_amount"`

	// MinMovementPct is the movement filter threshold in percent: a new
	// crossover signal needs the price to have moved at least this much
	// relative to the previous signal price.
	MinMovementPct float64 `json:"min_movement_pct" mapstructure:"min_movement_pct"`
}

func (p Params) validateCommon() error {
	if p.TradeAmount <= 0 {
		return fmt.Errorf("strategy: trade amount must be positive, got %v", p.TradeAmount)
	}
	if p.MinMovementPct < 0 {
		return fmt.Errorf("strategy: min movement must not be negative, got %v", p.MinMovementPct)
	}
	return nil
}

func (p Params) validateSMA() error {
	if err := p.validateCommon(); err != nil {
		return err
	}
	if p.Period < 2 {
		return fmt.Errorf("strategy: sma period must be at least 2, got %d", p.Period)
	}
	return nil
}

func (p Params) validateRSI() error {
	if err := p.validateCommon(); err != nil {
		return err
	}
	if p.Period < 2 {
		return fmt.Errorf("strategy: rsi period must be at least 2, got %d", p.Period)
	}
	if p.Oversold <= 0 || p.Overbought >= 100 || p.Oversold >= p.Overbought {
		return fmt.Errorf("strategy: rsi thresholds must satisfy 0 < oversold < overbought < 100, got %v/%v",
			p.Oversold, p.Overbought)
	}
	return nil
}

func (p Params) validateMACD() error {
	if err := p.validateCommon(); err != nil {
		return err
	}
	if p.FastPeriod < 2 || p.SlowPeriod < 2 || p.SignalPeriod < 2 {
		return fmt.Errorf("strategy: macd periods must be at least 2, got %d/%d/%d",
			p.FastPeriod, p.SlowPeriod, p.SignalPeriod)
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("strategy: macd fast period must be below slow period, got %d/%d",
			p.FastPeriod, p.SlowPeriod)
	}
	return nil
}
