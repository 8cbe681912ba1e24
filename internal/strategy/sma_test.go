package strategy

import (
	"testing"

	"signal-systemv1/internal/execution"
	"signal-systemv1/internal/ledger"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/portfolio"
)

// The reference round trip: a five-period SMA over a rise-then-fall sequence.
// The SMA first becomes ready at 50100 with the price already above the line,
// producing the one-time initial buy; the bearish cross lands at 50050.
var smaRoundTrip = []float64{49900, 49950, 50000, 50050, 50100, 50150, 50100, 50050, 50000, 49950, 49900}

func TestSMACrossoverRoundTrip(t *testing.T) {
	env := newTestEnv()
	params := smaParams()
	params.MinMovementPct = 0.01
	s, err := NewSMACrossover(params, env.deps)
	if err != nil {
		t.Fatalf("NewSMACrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	feed(s, "BTC-USD", smaRoundTrip)

	sigs := env.sink.signals()
	if len(sigs) != 2 {
		t.Fatalf("signals = %d, want 2: %+v", len(sigs), sigs)
	}
	if sigs[0].Type != model.SignalBuy || sigs[0].Price != 50100 {
		t.Errorf("first signal = %+v, want buy at 50100", sigs[0])
	}
	if sigs[1].Type != model.SignalSell || sigs[1].Price != 50050 {
		t.Errorf("second signal = %+v, want sell at 50050", sigs[1])
	}
	if sigs[0].Indicators["sma"] != 50000 {
		t.Errorf("buy sma = %v, want 50000", sigs[0].Indicators["sma"])
	}
	if sigs[1].Indicators["sma"] != 50090 {
		t.Errorf("sell sma = %v, want 50090", sigs[1].Indicators["sma"])
	}
	if len(env.sim.calls) != 2 {
		t.Fatalf("sim executor calls = %d, want 2", len(env.sim.calls))
	}
}

func TestSMACrossoverDefaultFilterSwallowsShallowExit(t *testing.T) {
	env := newTestEnv()
	s, err := NewSMACrossover(smaParams(), env.deps) // 0.5% filter
	if err != nil {
		t.Fatalf("NewSMACrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	feed(s, "BTC-USD", smaRoundTrip)

	// The sell at 50050 is only ~0.1% from the buy at 50100.
	sigs := env.sink.signals()
	if len(sigs) != 1 || sigs[0].Type != model.SignalBuy {
		t.Fatalf("signals = %+v, want single buy", sigs)
	}
}

func TestSMACrossoverInitialBuyFiresOnce(t *testing.T) {
	env := newTestEnv()
	params := smaParams()
	params.MinMovementPct = 0.01
	s, err := NewSMACrossover(params, env.deps)
	if err != nil {
		t.Fatalf("NewSMACrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Price stays above a flat-ish SMA after the initial entry: no further
	// bullish crosses, so exactly one buy.
	feed(s, "BTC-USD", []float64{100, 100, 100, 100, 110, 111, 112, 113, 114})

	sigs := env.sink.signals()
	if len(sigs) != 1 || sigs[0].Type != model.SignalBuy {
		t.Fatalf("signals = %+v, want single initial buy", sigs)
	}
}

func TestSMACrossoverSkipsDuplicateDirection(t *testing.T) {
	env := newTestEnv()
	params := smaParams()
	params.Period = 3
	s, err := NewSMACrossover(params, env.deps) // 0.5% filter
	if err != nil {
		t.Fatalf("NewSMACrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Buy at 110, then a shallow dip below the SMA (movement-filtered, so
	// the long position survives) followed by a second bullish cross at
	// 112: the repeat buy emits only a crossover event, no trade signal.
	feed(s, "BTC-USD", []float64{100, 100, 100, 90, 110, 109.6, 109.5, 112})

	sigs := env.sink.signals()
	if len(sigs) != 1 || sigs[0].Type != model.SignalBuy || sigs[0].Price != 110 {
		t.Fatalf("signals = %+v, want single buy at 110", sigs)
	}
	if got := len(env.sink.crossovers()); got != 3 {
		t.Fatalf("crossovers = %d, want 3", got)
	}
	if len(env.sim.calls) != 1 {
		t.Fatalf("sim executor calls = %d, want 1", len(env.sim.calls))
	}
}

// Full simulation session through the real executor and a paper account
// funded like the engine seeds it. A quote-only account would reject the exit
// sell with insufficient funds and the session could never realize P&L.
func TestSimulationRoundTripWithPaperAccount(t *testing.T) {
	balances := portfolio.NewMemoryBalances(map[string]float64{"BTC": 10, "USD": 100000})
	quotes := portfolio.NewQuotes()
	led := ledger.New()
	sink := &captureSink{}
	deps := Deps{
		Sink:   sink,
		Sim:    execution.NewSimExecutor(balances, quotes, 0.001),
		Ledger: led,
		Quotes: quotes,
	}

	params := smaParams()
	params.MinMovementPct = 0.01
	s, err := NewSMACrossover(params, deps)
	if err != nil {
		t.Fatalf("NewSMACrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i, p := range smaRoundTrip {
		quotes.Update("BTC-USD", p)
		s.OnPriceUpdate(tickAt("BTC-USD", p, i))
	}

	trades := led.Trades()
	if len(trades) != 2 {
		t.Fatalf("trades = %+v, want buy then sell", trades)
	}
	if trades[0].Side != model.SideBuy || trades[0].Price != 50100 {
		t.Errorf("entry = %+v, want buy at 50100", trades[0])
	}
	if trades[1].Side != model.SideSell || trades[1].Price != 50050 {
		t.Errorf("exit = %+v, want sell at 50050", trades[1])
	}
	if want := 0.01 * (50050.0 - 50100.0); trades[1].RealizedPnL != want {
		t.Errorf("realized pnl = %v, want %v", trades[1].RealizedPnL, want)
	}

	summary := led.Summary(quotes.Marks())
	if summary.SellTrades != 1 || summary.LossTrades != 1 {
		t.Errorf("summary = %+v, want one closed losing trade", summary)
	}
}

func TestSMACrossoverTracksProductsIndependently(t *testing.T) {
	env := newTestEnv()
	params := smaParams()
	params.MinMovementPct = 0.01
	s, err := NewSMACrossover(params, env.deps)
	if err != nil {
		t.Fatalf("NewSMACrossover: %v", err)
	}
	if err := s.Start(ModeSimulation); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i, p := range smaRoundTrip {
		s.OnPriceUpdate(tickAt("BTC-USD", p, i))
		s.OnPriceUpdate(tickAt("ETH-USD", p/10, i))
	}

	var btc, eth int
	for _, sig := range env.sink.signals() {
		switch sig.Product {
		case "BTC-USD":
			btc++
		case "ETH-USD":
			eth++
		}
	}
	if btc != 2 || eth != 2 {
		t.Fatalf("signals per product = %d/%d, want 2/2", btc, eth)
	}
}
