package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"atrium/internal/account/models"
	"atrium/internal/audit"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

func (s *ServiceSuite) TestValidationOrder() {
	admin := s.mustCreate("admin@example.com", models.RoleAdmin)

	s.Run("invalid role is rejected before any store read", func() {
		// Target does not exist; invalid role must still win.
		_, err := s.service.ChangeRole(s.ctx, admin.ID, id.UserID(uuid.New()), "superuser")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRole))
		s.Empty(s.auditStore.All())
	})

	s.Run("invalid role wins over self-demotion", func() {
		_, err := s.service.ChangeRole(s.ctx, admin.ID, admin.ID, "superuser")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRole))
	})

	s.Run("self-demotion wins over missing target", func() {
		ghost := id.UserID(uuid.New())
		_, err := s.service.ChangeRole(s.ctx, ghost, ghost, "user")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSelfDemotionForbidden))
	})

	s.Run("missing target reports not found", func() {
		_, err := s.service.ChangeRole(s.ctx, admin.ID, id.UserID(uuid.New()), "user")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.auditStore.All())
	})
}

func (s *ServiceSuite) TestSelfDemotionForbiddenEvenWithOtherAdmins() {
	admin := s.mustCreate("first@example.com", models.RoleAdmin)
	s.mustCreate("second@example.com", models.RoleAdmin)

	_, err := s.service.ChangeRole(s.ctx, admin.ID, admin.ID, "user")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSelfDemotionForbidden))
	s.Equal(models.RoleAdmin, s.roleOf(admin.ID))
	s.Empty(s.auditStore.All())
}

func (s *ServiceSuite) TestSelfReaffirmationSucceeds() {
	admin := s.mustCreate("solo@example.com", models.RoleAdmin)

	updated, err := s.service.ChangeRole(s.ctx, admin.ID, admin.ID, "admin")
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, updated.Role)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionRoleChange, events[0].Action)
	s.Equal("admin", events[0].Details[audit.DetailPreviousRole])
	s.Equal("admin", events[0].Details[audit.DetailNewRole])
}

func (s *ServiceSuite) TestLastAdminProtection() {
	s.Run("sole admin cannot be demoted by another admin", func() {
		sole := s.mustCreate("sole@example.com", models.RoleAdmin)
		other := s.mustCreate("user@example.com", models.RoleUser)

		_, err := s.service.ChangeRole(s.ctx, other.ID, sole.ID, "user")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLastAdminProtected))
		s.Equal(models.RoleAdmin, s.roleOf(sole.ID))
		s.Empty(s.auditStore.All())
	})

	s.Run("demotion succeeds when a second admin exists", func() {
		s.SetupTest()
		adminA := s.mustCreate("a@example.com", models.RoleAdmin)
		adminB := s.mustCreate("b@example.com", models.RoleAdmin)

		updated, err := s.service.ChangeRole(s.ctx, adminA.ID, adminB.ID, "user")
		s.Require().NoError(err)
		s.Equal(models.RoleUser, updated.Role)
		s.Equal(models.RoleAdmin, s.roleOf(adminA.ID))

		admins, err := s.accounts.CountByRole(s.ctx, models.RoleAdmin)
		s.Require().NoError(err)
		s.Equal(1, admins)
	})
}

func (s *ServiceSuite) TestPromotionAndAuditRoundTrip() {
	admin := s.mustCreate("admin@example.com", models.RoleAdmin)
	target := s.mustCreate("target@example.com", models.RoleUser)

	updated, err := s.service.ChangeRole(s.ctx, admin.ID, target.ID, "admin")
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, updated.Role)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	event := events[0]
	s.Equal(admin.ID, event.ActorID)
	s.Equal(target.ID, event.TargetID)
	s.Equal(audit.ActionRoleChange, event.Action)
	s.Equal("user", event.Details[audit.DetailPreviousRole])
	s.Equal("admin", event.Details[audit.DetailNewRole])
	s.False(event.Timestamp.IsZero())
}

// TestConcurrentDemotionsOfTwoAdmins: two admins, two simultaneous
// demotions, at most one may win.
func (s *ServiceSuite) TestConcurrentDemotionsOfTwoAdmins() {
	adminA := s.mustCreate("a@example.com", models.RoleAdmin)
	adminB := s.mustCreate("b@example.com", models.RoleAdmin)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	calls := []struct{ actor, target id.UserID }{
		{adminB.ID, adminA.ID},
		{adminA.ID, adminB.ID},
	}
	for i, call := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.service.ChangeRole(s.ctx, call.actor, call.target, "user")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.True(dErrors.HasCode(err, dErrors.CodeLastAdminProtected))
		}
	}
	s.Equal(1, succeeded)

	admins, err := s.accounts.CountByRole(s.ctx, models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(1, admins, "the system must never be left admin-less")

	s.Len(s.auditStore.All(), 1, "only the winning mutation is audited")
}

func (s *ServiceSuite) TestAuditFailureDoesNotFailMutation() {
	ctrl := gomock.NewController(s.T())
	auditor := NewMockAuditPublisher(ctrl)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := New(s.accounts, auditor, logger)

	admin := s.mustCreate("admin@example.com", models.RoleAdmin)
	target := s.mustCreate("target@example.com", models.RoleUser)

	auditor.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		Return(errors.New("audit store down"))

	updated, err := svc.ChangeRole(s.ctx, admin.ID, target.ID, "admin")
	s.Require().NoError(err, "audit failure must not fail the role change")
	s.Equal(models.RoleAdmin, updated.Role)
	s.Equal(models.RoleAdmin, s.roleOf(target.ID))
}

func (s *ServiceSuite) TestAuditAttemptSurvivesCallerCancellation() {
	admin := s.mustCreate("admin@example.com", models.RoleAdmin)
	target := s.mustCreate("target@example.com", models.RoleUser)

	ctrl := gomock.NewController(s.T())
	auditor := NewMockAuditPublisher(ctrl)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := New(s.accounts, auditor, logger)

	ctx, cancel := context.WithCancel(s.ctx)
	auditor.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(emitCtx context.Context, _ audit.Event) error {
			cancel()
			// The emission context must outlive the request context.
			select {
			case <-emitCtx.Done():
				s.Fail("audit context was cancelled with the request")
			case <-time.After(10 * time.Millisecond):
			}
			return nil
		})

	_, err := svc.ChangeRole(ctx, admin.ID, target.ID, "admin")
	s.Require().NoError(err)
}
