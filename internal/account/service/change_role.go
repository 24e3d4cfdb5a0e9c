package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"atrium/internal/account/models"
	"atrium/internal/audit"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/sentinel"
)

// ChangeRole is the role authority: the sole writer of Account.Role.
//
// Checks run in a fixed order and the first failure wins: requested role,
// self-demotion, target existence, last-admin protection. The store's
// ExecuteRoleChange holds its lock across the admin count read and the
// mutation, so concurrent demotions cannot both observe a stale count. On
// success an audit event is emitted best-effort: an audit failure is logged
// and counted but never rolls back or fails the mutation.
func (s *Service) ChangeRole(ctx context.Context, actorID, targetID id.UserID, requestedRole string) (*models.Account, error) {
	ctx, span := s.tracer.Start(ctx, "account.ChangeRole")
	defer span.End()
	span.SetAttributes(
		attribute.String("target_id", targetID.String()),
		attribute.String("requested_role", requestedRole),
	)

	account, err := s.changeRole(ctx, actorID, targetID, requestedRole)
	if err != nil {
		s.metrics.ObserveRoleChange(string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.ObserveRoleChange("success")
	return account, nil
}

func (s *Service) changeRole(ctx context.Context, actorID, targetID id.UserID, requestedRole string) (*models.Account, error) {
	// Check 1: the requested role must parse. Runs before any store read.
	requested, err := models.ParseRole(requestedRole)
	if err != nil {
		return nil, err
	}

	// Check 2: no admin strips their own authority through this path.
	if err := models.CheckSelfDemotion(actorID, targetID, requested); err != nil {
		return nil, err
	}

	var previousRole models.Role
	updated, err := s.accounts.ExecuteRoleChange(ctx, targetID,
		func(target *models.Account, adminCount int) error {
			// Check 4 runs under the store lock: the count is consistent
			// with the row about to be written.
			previousRole = target.Role
			return models.CheckLastAdmin(target, requested, adminCount)
		},
		func(target *models.Account) {
			target.ApplyRoleChange(requested, nowFrom(ctx))
		},
	)
	if err != nil {
		// Check 3: missing target surfaces here, after the in-process checks.
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "target account not found")
		}
		if dErrors.CodeOf(err) == dErrors.CodeLastAdminProtected {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist role change")
	}

	s.emitRoleChanged(ctx, actorID, updated.ID, previousRole, requested)

	s.logger.InfoContext(ctx, "role changed",
		"actor_id", actorID.String(),
		"target_id", updated.ID.String(),
		"previous_role", string(previousRole),
		"new_role", string(requested),
	)
	return updated, nil
}

// emitRoleChanged records the mutation. The write is detached from request
// cancellation: once the role change has committed, losing the audit record
// is worse than a slightly slower response, so the attempt always runs to
// completion even if the caller has gone away.
func (s *Service) emitRoleChanged(ctx context.Context, actorID, targetID id.UserID, previous, next models.Role) {
	auditCtx := context.WithoutCancel(ctx)
	err := s.auditor.Emit(auditCtx, audit.Event{
		ActorID:  actorID,
		TargetID: targetID,
		Action:   audit.ActionRoleChange,
		Details: map[string]string{
			audit.DetailPreviousRole: string(previous),
			audit.DetailNewRole:      string(next),
		},
	})
	if err != nil {
		s.metrics.IncAuditWriteFailures()
		s.logger.ErrorContext(ctx, "audit write failed after role change",
			"error", err,
			"actor_id", actorID.String(),
			"target_id", targetID.String(),
		)
		return
	}
	s.metrics.IncAuditEvents()
}
