package service

import (
	"github.com/google/uuid"

	"atrium/internal/account/models"
	"atrium/internal/audit"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

func (s *ServiceSuite) TestUpdateProfile() {
	s.Run("updates display name and audits it", func() {
		account := s.mustCreate("owner@example.com", models.RoleUser)

		updated, err := s.service.UpdateProfile(s.ctx, account.ID, "  Jane Doe  ")
		s.Require().NoError(err)
		s.Equal("Jane Doe", updated.DisplayName)

		stored, err := s.accounts.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal("Jane Doe", stored.DisplayName)
		s.Equal(models.RoleUser, stored.Role)

		events := s.auditStore.All()
		s.Require().Len(events, 1)
		s.Equal(audit.ActionProfileUpdate, events[0].Action)
		s.Equal("display_name", events[0].Details[audit.DetailField])
		s.Equal("Jane Doe", events[0].Details[audit.DetailNewValue])
	})

	s.Run("rejects empty display name", func() {
		account := s.mustCreate("empty@example.com", models.RoleUser)
		_, err := s.service.UpdateProfile(s.ctx, account.ID, "   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown account reports not found", func() {
		_, err := s.service.UpdateProfile(s.ctx, id.UserID(uuid.New()), "Someone")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing identity is unauthorized", func() {
		_, err := s.service.UpdateProfile(s.ctx, id.UserID{}, "Someone")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestDashboardStats() {
	admin := s.mustCreate("admin@example.com", models.RoleAdmin)
	s.mustCreate("one@example.com", models.RoleUser)
	s.mustCreate("two@example.com", models.RoleUser)

	_, err := s.service.UpdateProfile(s.ctx, admin.ID, "Admin One")
	s.Require().NoError(err)

	stats, err := s.service.DashboardStats(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.Equal(3, stats.TotalAccounts)
	s.Equal(1, stats.AdminAccounts)
	s.Require().Len(stats.RecentActivity, 1)
	s.Equal(audit.ActionProfileUpdate, stats.RecentActivity[0].Action)
}
