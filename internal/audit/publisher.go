package audit

import (
	"context"
	"log/slog"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/requestcontext"
)

// Sink receives a copy of every appended event. Sinks are best-effort by
// contract; a failing sink never fails the append.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher is the audit log writer. Emit assigns the event ID and timestamp
// when absent, appends to the store, then fans out to optional sinks.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger, sinks ...Sink) *Publisher {
	return &Publisher{store: store, sinks: sinks, logger: logger}
}

// Emit appends the event. The store append is the primary write; sink
// failures are logged and swallowed.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"error", err,
				"action", string(event.Action),
				"event_id", event.ID.String(),
			)
		}
	}
	return nil
}

// ListByActor returns the actor's most recent events, newest first.
func (p *Publisher) ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be positive")
	}
	return p.store.ListByActor(ctx, actorID, limit)
}

// ListRecent returns the most recent events across all actors.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be positive")
	}
	return p.store.ListRecent(ctx, limit)
}
