// Package notification delivers trade-signal alerts to external channels
// (webhooks, Telegram). Delivery is best-effort: failures are logged and
// never propagate into the tick path.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"signal-systemv1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// SignalAlert formats a trade signal as an alert.
func SignalAlert(sig model.Signal) Alert {
	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("%s %s %s @ %.2f", strings.ToUpper(sig.Strategy), strings.ToUpper(string(sig.Type)), sig.Product, sig.Price),
		Message: fmt.Sprintf("%s (confidence %.0f%%)", sig.Reason, sig.Confidence),
	}
}

// LogNotifier writes alerts to the structured log (useful for development).
type LogNotifier struct {
	Log *slog.Logger
}

func (n *LogNotifier) Send(_ context.Context, alert Alert) error {
	n.Log.Info("alert",
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title),
		slog.String("message", alert.Message))
	return nil
}
