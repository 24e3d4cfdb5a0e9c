package models

import (
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

// Role is the access level of an account. Exactly one value at a time;
// there is no multi-role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates an externally supplied role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidRole, "role must be one of: user, admin")
	}
}

// CheckSelfDemotion rejects an admin stripping their own admin status.
// Re-affirming admin on yourself is always allowed; setting yourself to
// user through this path never is, even when other admins exist.
func CheckSelfDemotion(actorID, targetID id.UserID, requested Role) error {
	if actorID == targetID && requested != RoleAdmin {
		return dErrors.New(dErrors.CodeSelfDemotionForbidden, "admins cannot demote themselves")
	}
	return nil
}

// CheckLastAdmin rejects a demotion that would leave the system without a
// single admin. This is a system-wide safety invariant, not self-protection:
// it binds every caller, including other admins. adminCount must be read
// under the same lock that guards the subsequent mutation.
func CheckLastAdmin(target *Account, requested Role, adminCount int) error {
	if target.Role == RoleAdmin && requested != RoleAdmin && adminCount <= 1 {
		return dErrors.New(dErrors.CodeLastAdminProtected, "cannot demote the last remaining admin")
	}
	return nil
}
