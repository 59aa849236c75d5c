package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"phishsim/internal/audit"
	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/store"
	"phishsim/internal/store/storetest"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.Store
	service   *Service
	tenant    storetest.Tenant
	owner     requestcontext.ActorInfo
	employees []*models.Employee
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storetest.New(s.T())
	s.service = New(s.store)
	s.tenant = storetest.SeedTenant(s.T(), s.store, "acme")
	s.owner = requestcontext.ActorInfo{
		AdminID:  s.tenant.Owner.ID,
		TenantID: s.tenant.Tenant.ID,
		Role:     string(models.RoleOwner),
	}
	s.employees = storetest.SeedEmployees(s.T(), s.store, s.tenant, 2)
}

// sentTo seeds a completed campaign sent to employee in the given class.
func (s *ServiceSuite) sentTo(e *models.Employee, class models.DataClass) *models.CampaignRecipient {
	c := storetest.SeedCampaign(s.T(), s.store, s.tenant, models.CampaignCompleted)
	scoped := *c
	scoped.DataScope = class
	return storetest.SeedSentRecipients(s.T(), s.store, &scoped, []*models.Employee{e})[0]
}

func (s *ServiceSuite) record(r *models.CampaignRecipient, eventType dedupe.EventType, at time.Time) {
	s.Require().NoError(s.store.Write(s.ctx, func(st *store.State) error {
		st.InsertEventIfAbsent(store.NewEvent{Recipient: r, Key: dedupe.New(r.ID, eventType, dedupe.Manual()), OccurredAt: &at})
		return nil
	}))
}

func (s *ServiceSuite) TestTimelineScopesAndBadges() {
	e := s.employees[0]
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	demo := s.sentTo(e, models.DataClassDemoOnly)
	reals := s.sentTo(e, models.DataClassReal)
	s.record(reals, dedupe.EventClick, base.Add(2*time.Hour))
	s.record(demo, dedupe.EventOpen, base)
	s.record(demo, dedupe.EventClick, base.Add(time.Hour))

	all, err := s.service.Timeline(s.ctx, s.owner, e.ID, models.ScopeAll)
	s.Require().NoError(err)
	s.Equal("mixed", all.Badge)
	s.Require().Len(all.Events, 3)
	s.Equal("open", all.Events[0].Type)
	s.Equal("click on campaign Quarterly drill", all.Events[1].Detail)
	s.Equal(models.DataClassReal, all.Events[2].DataClass)

	demoOnly, err := s.service.Timeline(s.ctx, s.owner, e.ID, models.ScopeDemo)
	s.Require().NoError(err)
	s.Equal("demo-only", demoOnly.Badge)
	s.Len(demoOnly.Events, 2)

	realOnly, err := s.service.Timeline(s.ctx, s.owner, e.ID, models.ScopeReal)
	s.Require().NoError(err)
	s.Equal("real-only", realOnly.Badge)
	s.Len(realOnly.Events, 1)
}

func (s *ServiceSuite) TestEmptyTimelineShowsPreview() {
	tl, err := s.service.Timeline(s.ctx, s.owner, s.employees[1].ID, models.ScopeAll)
	s.Require().NoError(err)
	s.Require().Len(tl.Events, 1)
	s.Equal(previewEventType, tl.Events[0].Type)
	s.Equal("Preview generated for demo campaign", tl.Events[0].Detail)
	s.Equal("demo-only", tl.Badge)

	storetest.SeedCampaign(s.T(), s.store, s.tenant, models.CampaignDraft)
	tl, err = s.service.Timeline(s.ctx, s.owner, s.employees[1].ID, models.ScopeReal)
	s.Require().NoError(err)
	s.Equal("Preview generated for campaign Quarterly drill", tl.Events[0].Detail)
}

func (s *ServiceSuite) TestHistory() {
	e := s.employees[0]
	r := s.sentTo(e, models.DataClassDemoOnly)
	s.record(r, dedupe.EventClick, time.Now())

	h, err := s.service.History(s.ctx, s.owner, e.ID)
	s.Require().NoError(err)
	s.Require().Len(h.Campaigns, 1)
	s.Equal(models.SendSent, h.Campaigns[0].SendStatus)
	s.Equal("not_started", h.Campaigns[0].Training)
	s.Len(h.Events, 1)

	empty, err := s.service.History(s.ctx, s.owner, s.employees[1].ID)
	s.Require().NoError(err)
	s.Empty(empty.Campaigns)
	s.Empty(empty.Events)
}

func (s *ServiceSuite) TestEmployeeReportGuards() {
	s.Run("unknown role is forbidden", func() {
		viewer := s.owner
		viewer.Role = "viewer"
		_, err := s.service.Timeline(s.ctx, viewer, s.employees[0].ID, models.ScopeAll)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		_, err = s.service.History(s.ctx, viewer, s.employees[0].ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("other tenant's employee is not found", func() {
		other := storetest.SeedTenant(s.T(), s.store, "beta")
		theirs := storetest.SeedEmployees(s.T(), s.store, other, 1)[0]
		_, err := s.service.Timeline(s.ctx, s.owner, theirs.ID, models.ScopeAll)
		s.True(dErrors.HasReason(err, "EMPLOYEE_NOT_FOUND"))
		_, err = s.service.History(s.ctx, s.owner, id.EmployeeID{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestAuditLogs() {
	other := storetest.SeedTenant(s.T(), s.store, "beta")
	s.Require().NoError(s.store.Write(s.ctx, func(st *store.State) error {
		for range 120 {
			st.AppendAudit(audit.ByAdmin(s.tenant.Tenant.ID, s.tenant.Owner.ID, audit.ActionCampaignPreview, audit.ResourceCampaign, "c"))
		}
		st.AppendAudit(audit.ByAdmin(other.Tenant.ID, other.Owner.ID, audit.ActionCampaignCreate, audit.ResourceCampaign, "theirs"))
		st.AppendAudit(audit.Global(s.tenant.Owner.ID, audit.ActionPauseGlobal, audit.ResourceSystem, "global_send"))
		return nil
	}))

	logs, err := s.service.AuditLogs(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(logs, auditPageSize)
	s.Equal(audit.ActionPauseGlobal, logs[0].Action)
	s.Nil(logs[0].TenantID)
	for _, entry := range logs[1:] {
		s.Equal(s.tenant.Tenant.ID, *entry.TenantID)
	}
}
