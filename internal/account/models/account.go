package models

import (
	"strings"
	"time"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

// Account is the identity record for one user of the platform.
//
// Email is lowercase-normalized and immutable through this service.
// Role is only ever written by the role authority (service.ChangeRole);
// everything else treats it as read-only.
type Account struct {
	ID           id.UserID
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount builds an account with a normalized email and the default role.
func NewAccount(accountID id.UserID, email, displayName string, now time.Time) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "valid email is required")
	}
	return &Account{
		ID:          accountID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyRoleChange mutates the role. Callers must have run CheckSelfDemotion
// and CheckLastAdmin first; the store's role-change callback holds the lock
// across validation and mutation.
func (a *Account) ApplyRoleChange(role Role, now time.Time) {
	a.Role = role
	a.UpdatedAt = now
}

// ApplyDisplayName updates the owner-mutable display name.
func (a *Account) ApplyDisplayName(name string, now time.Time) {
	a.DisplayName = name
	a.UpdatedAt = now
}

// IsAdmin reports whether the account is privileged.
func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }
