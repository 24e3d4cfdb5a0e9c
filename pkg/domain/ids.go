// Package domain holds typed identifiers shared across the platform.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment (an actor ID can never be passed where an audit event ID is
// expected). Parse functions enforce the trust-boundary invariant: IDs must
// be valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "atrium/pkg/domain-errors"
)

// UserID identifies an account.
type UserID uuid.UUID

// EventID identifies an audit event.
type EventID uuid.UUID

// NewUserID returns a fresh random UserID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewEventID returns a fresh random EventID.
func NewEventID() EventID {
	return EventID(uuid.New())
}

// ParseUserID parses an external string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseEventID parses an external string into an EventID.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	return EventID(u), err
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "nil id")
	}
	return u, nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id EventID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id EventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
