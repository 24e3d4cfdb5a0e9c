package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"atrium/internal/account/models"
	"atrium/internal/audit"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/sentinel"
	"atrium/pkg/requestcontext"
)

func nowFrom(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}

// UpdateProfile lets an account owner change their display name. Role and
// email are untouchable here.
func (s *Service) UpdateProfile(ctx context.Context, actorID id.UserID, displayName string) (*models.Account, error) {
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "display name is required")
	}

	account, err := s.accounts.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	account.ApplyDisplayName(displayName, nowFrom(ctx))
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}

	if err := s.auditor.Emit(context.WithoutCancel(ctx), audit.Event{
		ActorID:  actorID,
		TargetID: actorID,
		Action:   audit.ActionProfileUpdate,
		Details: map[string]string{
			audit.DetailField:    "display_name",
			audit.DetailNewValue: displayName,
		},
	}); err != nil {
		s.metrics.IncAuditWriteFailures()
		s.logger.WarnContext(ctx, "audit write failed after profile update",
			"error", err,
			"actor_id", actorID.String(),
		)
	} else {
		s.metrics.IncAuditEvents()
	}

	return account, nil
}
