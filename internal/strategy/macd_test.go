package strategy

import (
	"testing"

	"signal-systemv1/internal/model"
)

func macdParams() Params {
	return Params{FastPeriod: 2, SlowPeriod: 3, SignalPeriod: 2, TradeAmount: 0.01, MinMovementPct: 0.5}
}

func TestMACDCrossoverRoundTrip(t *testing.T) {
	env := newTestEnv()
	s, err := NewMACDCrossover(macdParams(), env.deps)
	if err != nil {
		t.Fatalf("NewMACDCrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Flat warmup, then a run-up pushes the histogram above zero at 12 and
	// the reversal drags it back below at 14.
	feed(s, "BTC-USD", []float64{10, 10, 10, 10, 10, 12, 14, 16, 14, 12})

	sigs := env.sink.signals()
	if len(sigs) != 2 {
		t.Fatalf("signals = %d, want 2: %+v", len(sigs), sigs)
	}
	if sigs[0].Type != model.SignalBuy || sigs[0].Price != 12 {
		t.Errorf("first signal = %+v, want buy at 12", sigs[0])
	}
	if sigs[1].Type != model.SignalSell || sigs[1].Price != 14 {
		t.Errorf("second signal = %+v, want sell at 14", sigs[1])
	}
	if sigs[0].Indicators["histogram"] <= 0 {
		t.Errorf("buy histogram = %v, want > 0", sigs[0].Indicators["histogram"])
	}
	if sigs[1].Indicators["histogram"] >= 0 {
		t.Errorf("sell histogram = %v, want < 0", sigs[1].Indicators["histogram"])
	}
}

func TestMACDCrossoverBearishWithoutPositionIsSkipped(t *testing.T) {
	env := newTestEnv()
	s, err := NewMACDCrossover(macdParams(), env.deps)
	if err != nil {
		t.Fatalf("NewMACDCrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Straight decline from a flat warmup: the first cross is bearish and
	// there is nothing to exit.
	feed(s, "BTC-USD", []float64{10, 10, 10, 10, 10, 9, 8, 7, 6})

	if sigs := env.sink.signals(); len(sigs) != 0 {
		t.Fatalf("signals = %+v, want none", sigs)
	}
	if len(env.sim.calls) != 0 {
		t.Fatalf("sim executor calls = %d, want 0", len(env.sim.calls))
	}
	// The cross itself is still published for visualization.
	if got := len(env.sink.crossovers()); got != 1 {
		t.Fatalf("crossovers = %d, want 1", got)
	}
}

func TestMACDCrossoverWarmWhileStopped(t *testing.T) {
	env := newTestEnv()
	s, err := NewMACDCrossover(macdParams(), env.deps)
	if err != nil {
		t.Fatalf("NewMACDCrossover: %v", err)
	}

	feed(s, "BTC-USD", []float64{10, 10, 10, 10, 10, 12, 14})

	if len(env.sink.events) != 0 {
		t.Fatalf("stopped strategy emitted %d events", len(env.sink.events))
	}
	ind := s.Indicators("BTC-USD")
	if ind == nil {
		t.Fatal("indicators should stay warm while stopped")
	}
	if ind["histogram"] <= 0 {
		t.Errorf("histogram = %v, want > 0 during the run-up", ind["histogram"])
	}
}

func TestMACDCrossoverPeriodChangeRebuildsState(t *testing.T) {
	env := newTestEnv()
	s, err := NewMACDCrossover(macdParams(), env.deps)
	if err != nil {
		t.Fatalf("NewMACDCrossover: %v", err)
	}

	feed(s, "BTC-USD", []float64{10, 10, 10, 10, 10, 12, 14})
	if s.Indicators("BTC-USD") == nil {
		t.Fatal("expected warm indicators before the update")
	}

	p := macdParams()
	p.SlowPeriod = 5
	if err := s.UpdateParameters(p); err != nil {
		t.Fatalf("UpdateParameters: %v", err)
	}
	if ind := s.Indicators("BTC-USD"); ind != nil {
		t.Fatalf("indicators after period change = %v, want nil until re-warmed", ind)
	}

	if err := s.UpdateParameters(Params{FastPeriod: 5, SlowPeriod: 3, SignalPeriod: 2, TradeAmount: 0.01}); err == nil {
		t.Fatal("accepted fast period >= slow period")
	}
}
