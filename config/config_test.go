package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Products) != 1 || cfg.Products[0] != "BTC-USD" {
		t.Errorf("products = %v, want [BTC-USD]", cfg.Products)
	}
	if cfg.Feed.BufferSize != 1024 {
		t.Errorf("feed buffer = %d, want 1024", cfg.Feed.BufferSize)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("metrics addr = %s, want :9090", cfg.Metrics.Addr)
	}
	if cfg.Paper.QuoteFunds != 100000 || cfg.Paper.BaseFunds != 10 {
		t.Errorf("paper funds = %+v, want 100000/10", cfg.Paper)
	}

	params := cfg.StrategyParams()
	for kind, p := range params {
		if p.TradeAmount != 0.01 {
			t.Errorf("%s trade amount = %v, want 0.01", kind, p.TradeAmount)
		}
		if p.MinMovementPct != 0.5 {
			t.Errorf("%s min movement = %v, want 0.5", kind, p.MinMovementPct)
		}
	}
	if p := cfg.Strategy["macd"]; p.FastPeriod != 12 || p.SlowPeriod != 26 || p.SignalPeriod != 9 {
		t.Errorf("macd periods = %d/%d/%d, want 12/26/9", p.FastPeriod, p.SlowPeriod, p.SignalPeriod)
	}
	if cfg.LiveEnabled() {
		t.Error("live enabled without broker credentials")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
products:
  - BTC-USD
  - ETH-USD
feed:
  url: wss://feed.test/ws
  buffer_size: 64
broker:
  base_url: https://broker.test
  api_key: key
strategy:
  sma:
    period: 10
    trade_amount: 0.5
    min_movement_pct: 1.0
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.ProductIDs(); len(got) != 2 || got[1] != "ETH-USD" {
		t.Errorf("products = %v", got)
	}
	if cfg.Feed.URL != "wss://feed.test/ws" || cfg.Feed.BufferSize != 64 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if !cfg.LiveEnabled() {
		t.Error("live not enabled with broker credentials set")
	}
	sma := cfg.Strategy["sma"]
	if sma.Period != 10 || sma.TradeAmount != 0.5 || sma.MinMovementPct != 1.0 {
		t.Errorf("sma params = %+v", sma)
	}
	// Untouched sections keep their defaults.
	if cfg.Strategy["rsi"].Oversold != 30 {
		t.Errorf("rsi oversold = %v, want 30", cfg.Strategy["rsi"].Oversold)
	}
}

// A paper account funded only on the quote side would reject every simulated
// sell, so both sides of every product must come out non-zero.
func TestPaperFundsSeedBothSides(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Products = []string{"BTC-USD", "ETH-USD"}

	funds := cfg.PaperFunds()
	for _, currency := range []string{"BTC", "ETH", "USD"} {
		if funds[currency] <= 0 {
			t.Errorf("paper funds for %s = %v, want > 0", currency, funds[currency])
		}
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("products: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load accepted malformed yaml")
	}
}
