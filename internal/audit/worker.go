package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ChannelSink enqueues events for a background Worker. Publish never blocks;
// when the buffer is full the event is dropped from the fan-out. The primary
// store append has already happened by the time a sink sees the event.
type ChannelSink struct {
	inbox chan<- Event
}

func NewChannelSink(inbox chan<- Event) *ChannelSink {
	return &ChannelSink{inbox: inbox}
}

func (s *ChannelSink) Publish(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		return errors.New("audit inbox full, event dropped")
	}
}

// Worker drains an inbox channel into a sink. It backs the fire-and-forget
// fan-out path: producers enqueue and move on, the worker owns delivery.
// Delivery failures are logged, never fatal; losing one fan-out copy must not
// take the worker (or the server) down with it.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes until ctx is cancelled, then drains whatever is already
// queued before returning. Enqueued events survive a graceful shutdown.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.deliver(event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			w.deliver(event)
		default:
			return
		}
	}
}

func (w *Worker) deliver(event Event) {
	// Detached context: the producer's request may already be cancelled.
	if err := w.sink.Publish(context.Background(), event); err != nil {
		w.logger.Warn("audit delivery failed",
			"error", err,
			"action", string(event.Action),
			"event_id", event.ID.String(),
		)
	}
}
