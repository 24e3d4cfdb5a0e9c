// Package audit is the append-only record of privileged actions. Events are
// immutable facts: the writer appends, reporting consumers read, nothing
// mutates or deletes.
package audit

import (
	"time"

	id "atrium/pkg/domain"
)

// Action tags the kind of event.
type Action string

const (
	// ActionRoleChange records a successful role mutation.
	ActionRoleChange Action = "role_change"
	// ActionProfileUpdate records an owner editing their own profile.
	ActionProfileUpdate Action = "profile_update"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
//
// ActorID and TargetID are recorded as plain references; they stay valid in
// the log even if the accounts are later removed by outside processes.
type Event struct {
	ID        id.EventID
	Timestamp time.Time
	ActorID   id.UserID
	TargetID  id.UserID
	Action    Action
	Details   map[string]string
	RequestID string
}

// Detail keys used by the role authority and profile flow.
const (
	DetailPreviousRole = "previous_role"
	DetailNewRole      = "new_role"
	DetailField        = "field"
	DetailNewValue     = "new_value"
)
