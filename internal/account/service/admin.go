package service

import (
	"context"

	"atrium/internal/account/models"
	"atrium/internal/audit"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

const recentActivityLimit = 10

// ListAccounts returns every account, newest first. Admin-gated at the
// transport layer.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

// Stats feeds the dashboard widgets: a platform-wide account count plus the
// caller's own recent audit trail.
type Stats struct {
	TotalAccounts  int
	AdminAccounts  int
	RecentActivity []audit.Event
}

// DashboardStats aggregates counts and the actor's recent activity.
func (s *Service) DashboardStats(ctx context.Context, actorID id.UserID) (*Stats, error) {
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}

	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count accounts")
	}
	admins, err := s.accounts.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count admins")
	}

	activity, err := s.auditor.ListByActor(ctx, actorID, recentActivityLimit)
	if err != nil {
		// Reporting reads are best-effort; an empty activity panel beats a
		// failed dashboard.
		s.logger.WarnContext(ctx, "failed to load recent activity",
			"error", err,
			"actor_id", actorID.String(),
		)
		activity = nil
	}

	return &Stats{
		TotalAccounts:  total,
		AdminAccounts:  admins,
		RecentActivity: activity,
	}, nil
}
