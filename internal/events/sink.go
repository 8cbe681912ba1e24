// Package events provides the signal/crossover emission points. Strategies
// receive a Sink at construction instead of reaching into ambient global
// state; the transport layer decides where emissions fan out to.
package events

import "log/slog"

// Event names emitted by the strategy layer.
const (
	EventSignal    = "signal"
	EventCrossover = "crossover"
)

// Sink receives strategy emissions.
type Sink interface {
	// Emit publishes an event. Implementations must not block the caller's
	// tick-dispatch goroutine; slow transports drop or buffer internally.
	Emit(event string, payload any)
}

// MultiSink fans one emission out to several sinks.
type MultiSink []Sink

func (m MultiSink) Emit(event string, payload any) {
	for _, s := range m {
		s.Emit(event, payload)
	}
}

// LogSink writes emissions to the structured log. Useful for development and
// as a default when no transport is configured.
type LogSink struct {
	Log *slog.Logger
}

func (s *LogSink) Emit(event string, payload any) {
	s.Log.Info("event emitted", slog.String("event", event), slog.Any("payload", payload))
}
