package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/store"
	"phishsim/internal/store/storetest"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.Store
	service *Service
	tenant  storetest.Tenant
	actor   requestcontext.ActorInfo
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storetest.New(s.T())
	s.service = New(s.store)
	s.tenant = storetest.SeedTenant(s.T(), s.store, "acme")
	s.actor = requestcontext.ActorInfo{
		AdminID:  s.tenant.Owner.ID,
		TenantID: s.tenant.Tenant.ID,
		Role:     string(models.RoleOwner),
	}
}

func (s *ServiceSuite) state() *store.State {
	st, err := store.View(s.ctx, s.store, func(st *store.State) (*store.State, error) {
		return st, nil
	})
	s.Require().NoError(err)
	return st
}

func (s *ServiceSuite) TestGlobalPause() {
	res, err := s.service.SetGlobalPause(s.ctx, s.actor, true, "provider incident")
	s.Require().NoError(err)
	s.True(res.GlobalSendPaused)

	st := s.state()
	s.True(st.System.GlobalSendPaused)
	s.Require().Len(st.OperationalControls, 1)
	s.Equal(models.ControlGlobal, st.OperationalControls[0].Scope)
	s.Nil(st.OperationalControls[0].ScopeID)

	last := st.AuditLogs[len(st.AuditLogs)-1]
	s.Equal(audit.ActionPauseGlobal, last.Action)
	s.Nil(last.TenantID)
	s.Equal("provider incident", *last.Reason)

	res, err = s.service.SetGlobalPause(s.ctx, s.actor, false, "resolved")
	s.Require().NoError(err)
	s.False(res.GlobalSendPaused)
	s.Len(s.state().OperationalControls, 2)
}

func (s *ServiceSuite) TestTenantPause() {
	s.Run("pauses and resumes own tenant", func() {
		res, err := s.service.SetTenantPause(s.ctx, s.actor, s.tenant.Tenant.ID, true, "quiet period")
		s.Require().NoError(err)
		s.True(res.SendPaused)

		res, err = s.service.SetTenantPause(s.ctx, s.actor, s.tenant.Tenant.ID, false, "back on")
		s.Require().NoError(err)
		s.False(res.SendPaused)

		st := s.state()
		s.Require().Len(st.OperationalControls, 2)
		s.Equal(models.ControlTenant, st.OperationalControls[1].Scope)
		s.Equal(s.tenant.Tenant.ID.String(), *st.OperationalControls[1].ScopeID)
	})

	s.Run("another tenant is forbidden", func() {
		other := storetest.SeedTenant(s.T(), s.store, "beta")
		_, err := s.service.SetTenantPause(s.ctx, s.actor, other.Tenant.ID, true, "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("restricted tenant stays paused", func() {
		s.Require().NoError(s.store.Write(s.ctx, func(st *store.State) error {
			st.Tenants[s.tenant.Tenant.ID].ApplyRestriction(id.ViolationID{}, st.Now())
			return nil
		}))
		_, err := s.service.SetTenantPause(s.ctx, s.actor, s.tenant.Tenant.ID, false, "try to resume")
		s.True(dErrors.HasReason(err, "TENANT_RESTRICTED"))
		s.True(dErrors.HasCode(err, dErrors.CodeLocked))

		res, err := s.service.SetTenantPause(s.ctx, s.actor, s.tenant.Tenant.ID, true, "still paused")
		s.Require().NoError(err)
		s.True(res.SendPaused)
	})
}
