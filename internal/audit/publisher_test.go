package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/requestcontext"
)

func newTestPublisher(sinks ...Sink) (*Publisher, *InMemoryStore) {
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewPublisher(store, logger, sinks...), store
}

type failingSink struct{ calls int }

func (s *failingSink) Publish(context.Context, Event) error {
	s.calls++
	return errors.New("broker unavailable")
}

func TestEmitAssignsIdentityAndTimestamp(t *testing.T) {
	publisher, store := newTestPublisher()
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-123")

	actor := id.UserID(uuid.New())
	err := publisher.Emit(ctx, Event{
		ActorID:  actor,
		TargetID: actor,
		Action:   ActionRoleChange,
	})
	require.NoError(t, err)

	events := store.All()
	require.Len(t, events, 1)
	assert.False(t, events[0].ID.IsNil())
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-123", events[0].RequestID)
}

func TestEmitKeepsExplicitTimestamp(t *testing.T) {
	publisher, store := newTestPublisher()
	explicit := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := publisher.Emit(context.Background(), Event{
		ActorID:   id.UserID(uuid.New()),
		TargetID:  id.UserID(uuid.New()),
		Action:    ActionProfileUpdate,
		Timestamp: explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, store.All()[0].Timestamp)
}

func TestEmitSwallowsSinkFailures(t *testing.T) {
	sink := &failingSink{}
	publisher, store := newTestPublisher(sink)

	err := publisher.Emit(context.Background(), Event{
		ActorID:  id.UserID(uuid.New()),
		TargetID: id.UserID(uuid.New()),
		Action:   ActionRoleChange,
	})
	require.NoError(t, err, "sink failure must not fail the append")
	assert.Equal(t, 1, sink.calls)
	assert.Len(t, store.All(), 1)
}

func TestListRejectsNonPositiveLimits(t *testing.T) {
	publisher, _ := newTestPublisher()
	ctx := context.Background()
	actor := id.UserID(uuid.New())

	require.NoError(t, publisher.Emit(ctx, Event{
		ActorID: actor, TargetID: actor, Action: ActionProfileUpdate,
	}))

	for _, limit := range []int{0, -1} {
		_, err := publisher.ListByActor(ctx, actor, limit)
		require.Error(t, err, "limit %d", limit)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = publisher.ListRecent(ctx, limit)
		require.Error(t, err, "limit %d", limit)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestListByActorNewestFirst(t *testing.T) {
	publisher, _ := newTestPublisher()
	ctx := context.Background()
	actor := id.UserID(uuid.New())
	other := id.UserID(uuid.New())

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, publisher.Emit(ctx, Event{
			ActorID:   actor,
			TargetID:  actor,
			Action:    ActionProfileUpdate,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, publisher.Emit(ctx, Event{
		ActorID: other, TargetID: other, Action: ActionRoleChange, Timestamp: base,
	}))

	events, err := publisher.ListByActor(ctx, actor, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, base.Add(2*time.Minute), events[0].Timestamp)
	assert.Equal(t, base.Add(time.Minute), events[1].Timestamp)
	for _, e := range events {
		assert.Equal(t, actor, e.ActorID)
	}
}
