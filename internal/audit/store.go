package audit

import (
	"context"

	id "atrium/pkg/domain"
)

// Store persists audit events. Append is the only write; there is no update
// or delete by contract. Reads serve reporting consumers and may lag the
// latest append (eventual visibility is acceptable). List limits must be
// positive; the Publisher rejects anything else before it reaches a store.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
