package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signal-systemv1/internal/events"
	"signal-systemv1/internal/execution"
	"signal-systemv1/internal/ledger"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/portfolio"
	"signal-systemv1/internal/strategy"
)

// nopExecutor satisfies the executor contract without placing orders.
type nopExecutor struct{}

func (nopExecutor) ExecuteBuyOrder(_ context.Context, product model.ProductID, amount float64) (execution.Fill, error) {
	return execution.Fill{Product: product, Side: model.SideBuy, Amount: amount}, nil
}

func (nopExecutor) ExecuteSellOrder(_ context.Context, product model.ProductID, amount float64) (execution.Fill, error) {
	return execution.Fill{Product: product, Side: model.SideSell, Amount: amount}, nil
}

func newTestServer(t *testing.T) (*Server, *events.SignalRing, *ledger.Ledger) {
	t.Helper()
	led := ledger.New()
	quotes := portfolio.NewQuotes()
	ring := events.NewSignalRing(16)
	mgr, err := strategy.NewManager(map[strategy.Kind]strategy.Params{
		strategy.KindSMA:  {Period: 5, TradeAmount: 0.01, MinMovementPct: 0.5},
		strategy.KindRSI:  {Period: 14, Oversold: 30, Overbought: 70, TradeAmount: 0.01, MinMovementPct: 0.5},
		strategy.KindMACD: {FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9, TradeAmount: 0.01, MinMovementPct: 0.5},
	}, strategy.Deps{Sim: nopExecutor{}, Live: nopExecutor{}, Ledger: led, Quotes: quotes})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &Server{Manager: mgr, Ring: ring, Ledger: led, Quotes: quotes}, ring, led
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := do(t, srv.NewRouter(), http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestStrategyLifecycleEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	mux := srv.NewRouter()

	w := do(t, mux, http.MethodPost, "/api/v1/strategies/sma/start", `{"mode":"simulation"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body)
	}

	// Starting again conflicts.
	w = do(t, mux, http.MethodPost, "/api/v1/strategies/sma/start", `{"mode":"simulation"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", w.Code)
	}

	w = do(t, mux, http.MethodPost, "/api/v1/strategies/sma/mode", `{"mode":"active"}`)
	if w.Code != http.StatusOK {
		t.Errorf("mode status = %d: %s", w.Code, w.Body)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/strategies", "")
	var list []strategyStatus
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("strategies = %d, want 3", len(list))
	}
	for _, st := range list {
		if st.Name == "sma" && st.Mode != strategy.ModeActive {
			t.Errorf("sma mode = %v, want active", st.Mode)
		}
	}

	w = do(t, mux, http.MethodPost, "/api/v1/strategies/sma/stop", "")
	if w.Code != http.StatusOK {
		t.Errorf("stop status = %d", w.Code)
	}
	w = do(t, mux, http.MethodPost, "/api/v1/strategies/sma/stop", "")
	if w.Code != http.StatusConflict {
		t.Errorf("second stop status = %d, want 409", w.Code)
	}

	w = do(t, mux, http.MethodPost, "/api/v1/strategies/bollinger/start", `{"mode":"simulation"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown strategy status = %d, want 404", w.Code)
	}
}

func TestUpdateParametersEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	mux := srv.NewRouter()

	w := do(t, mux, http.MethodPut, "/api/v1/strategies/rsi/parameters",
		`{"period":10,"oversold":25,"overbought":75,"trade_amount":0.02,"min_movement_pct":0.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body)
	}
	st, _ := srv.Manager.Strategy(strategy.KindRSI)
	if got := st.Parameters().Oversold; got != 25 {
		t.Errorf("oversold = %v, want 25", got)
	}

	w = do(t, mux, http.MethodPut, "/api/v1/strategies/rsi/parameters",
		`{"period":10,"oversold":90,"overbought":10,"trade_amount":0.02}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid params status = %d, want 400", w.Code)
	}
}

func TestRecentSignalsEndpoint(t *testing.T) {
	srv, ring, _ := newTestServer(t)
	mux := srv.NewRouter()

	for i := 0; i < 3; i++ {
		ring.Push(model.Signal{
			Type:     model.SignalBuy,
			Strategy: "sma",
			Product:  "BTC-USD",
			Price:    float64(50000 + i),
			TS:       time.Unix(int64(i), 0),
		})
	}

	w := do(t, mux, http.MethodGet, "/api/v1/signals?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sigs []model.Signal
	if err := json.Unmarshal(w.Body.Bytes(), &sigs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("signals = %d, want 2", len(sigs))
	}
	// Newest first.
	if sigs[0].Price != 50002 {
		t.Errorf("first signal price = %v, want 50002", sigs[0].Price)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/signals?limit=junk", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestPositionsEndpoint(t *testing.T) {
	srv, _, led := newTestServer(t)
	mux := srv.NewRouter()

	if _, err := led.RecordTrade("BTC-USD", model.SideBuy, 0.5, 50000, 10, true); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	srv.Quotes.Update("BTC-USD", 51000)

	w := do(t, mux, http.MethodGet, "/api/v1/positions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out []struct {
		Product       model.ProductID `json:"product_id"`
		Amount        float64         `json:"amount"`
		AvgPrice      float64         `json:"avg_price"`
		UnrealizedPnL float64         `json:"unrealized_pnl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("positions = %d, want 1", len(out))
	}
	if out[0].AvgPrice != 50000 {
		t.Errorf("avg price = %v, want 50000", out[0].AvgPrice)
	}
	if out[0].UnrealizedPnL != 500 {
		t.Errorf("unrealized pnl = %v, want 500", out[0].UnrealizedPnL)
	}
}
