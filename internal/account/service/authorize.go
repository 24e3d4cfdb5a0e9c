package service

import (
	"atrium/internal/account/models"
	dErrors "atrium/pkg/domain-errors"
)

// AuthorizeAdmin is the authorization gate: a pure predicate over the
// caller's resolved role, no side effects, no store reads. It runs (as
// middleware) before any mutation data is loaded, so unauthorized callers
// cannot probe whether a target exists.
func AuthorizeAdmin(callerRole string) error {
	if models.Role(callerRole) != models.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}
