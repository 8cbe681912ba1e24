package notification

import (
	"context"
	"log/slog"
	"time"

	"signal-systemv1/internal/events"
	"signal-systemv1/internal/model"
)

const sendTimeout = 10 * time.Second

// SignalSink forwards emitted trade signals to a notifier. It satisfies
// events.Sink and hands delivery to a worker goroutine so a slow notifier
// never blocks the tick path; when the worker is behind, alerts are dropped.
type SignalSink struct {
	notifier Notifier
	log      *slog.Logger
	alerts   chan Alert
	done     chan struct{}
}

// NewSignalSink starts the delivery worker. Close releases it.
func NewSignalSink(notifier Notifier, log *slog.Logger) *SignalSink {
	s := &SignalSink{
		notifier: notifier,
		log:      log,
		alerts:   make(chan Alert, 64),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *SignalSink) Emit(event string, payload any) {
	if event != events.EventSignal {
		return
	}
	sig, ok := payload.(model.Signal)
	if !ok {
		return
	}
	select {
	case s.alerts <- SignalAlert(sig):
	default:
		s.log.Warn("alert queue full, dropping notification", slog.String("product", sig.Product.String()))
	}
}

// Close stops the worker after the queued alerts drain.
func (s *SignalSink) Close() {
	close(s.alerts)
	<-s.done
}

func (s *SignalSink) worker() {
	defer close(s.done)
	for alert := range s.alerts {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := s.notifier.Send(ctx, alert); err != nil {
			s.log.Warn("alert delivery failed", slog.String("title", alert.Title), slog.Any("error", err))
		}
		cancel()
	}
}
