package audit

import (
	"context"
	"log/slog"
)

// Sink receives audit events. Implementations: kafka producer, slog fallback.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains the publisher's inbox into a sink. Run it in a goroutine for
// the lifetime of the process; it returns when the context is cancelled.
type Worker struct {
	inbox  <-chan Event
	sink   Sink
	logger *slog.Logger
}

// NewWorker constructs a worker over the publisher's inbox.
func NewWorker(inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

// Run consumes events until ctx is done. Sink failures are logged and the
// worker keeps going; a broken audit pipeline must not take the engine down.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit publish failed",
					"action", string(event.Action),
					"error", err.Error(),
				)
			}
		}
	}
}

// LogSink writes audit events to the structured log. Used when no kafka
// brokers are configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink constructs the slog-backed sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs the event at info level.
func (s *LogSink) Publish(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"actor", event.Actor,
		"namespace_id", event.NamespaceID,
		"version_id", event.VersionID,
		"detail", event.Detail,
		"at", event.Timestamp,
	)
	return nil
}
