package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"signal-systemv1/internal/events"
	"signal-systemv1/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookNotifierPostsAlert(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	alert := Alert{Level: AlertInfo, Title: "SMA BUY BTC-USD @ 50100.00", Message: "crossed above"}
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != alert {
		t.Errorf("delivered alert = %+v, want %+v", got, alert)
	}
}

func TestWebhookNotifierReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Title: "x"}); err == nil {
		t.Fatal("Send succeeded against 502")
	}
}

// The log notifier is the engine default when no webhook is configured.
func TestLogNotifierWritesAlert(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	alert := Alert{Level: AlertInfo, Title: "RSI SELL BTC-USD @ 50100.00", Message: "overbought"}
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(buf.String(), alert.Title) {
		t.Errorf("log output missing alert title: %s", buf.String())
	}
}

// recordingNotifier captures alerts for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *recordingNotifier) Send(_ context.Context, alert Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingNotifier) snapshot() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

func TestSignalSinkForwardsSignalsOnly(t *testing.T) {
	rec := &recordingNotifier{}
	sink := NewSignalSink(rec, testLogger())

	sig := model.Signal{
		Type:       model.SignalBuy,
		Strategy:   "sma",
		Product:    "BTC-USD",
		Price:      50100,
		Reason:     "price 50100.00 crossed above SMA(5) 50000.00",
		Confidence: 4,
		TS:         time.Now(),
	}
	sink.Emit(events.EventSignal, sig)
	sink.Emit(events.EventCrossover, model.Crossover{Type: model.SignalSell, Product: "BTC-USD"})
	sink.Emit(events.EventSignal, "not a signal")
	sink.Close()

	alerts := rec.snapshot()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1: %+v", len(alerts), alerts)
	}
	if alerts[0].Title != "SMA BUY BTC-USD @ 50100.00" {
		t.Errorf("title = %q", alerts[0].Title)
	}
	if alerts[0].Level != AlertInfo {
		t.Errorf("level = %s, want INFO", alerts[0].Level)
	}
}
