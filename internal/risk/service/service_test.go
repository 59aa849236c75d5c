package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"phishsim/internal/audit"
	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/risk"
	"phishsim/internal/store"
	"phishsim/internal/store/storetest"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.Store
	service    *Service
	tenant     storetest.Tenant
	owner      requestcontext.ActorInfo
	campaign   *models.Campaign
	recipients []*models.CampaignRecipient
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
	emps := storetest.SeedEmployees(s.T(), s.store, s.tenant, 10)
	s.campaign = storetest.SeedCampaign(s.T(), s.store, s.tenant, models.CampaignCompleted)
	s.recipients = storetest.SeedSentRecipients(s.T(), s.store, s.campaign, emps)
}

func (s *ServiceSuite) record(recipients []*models.CampaignRecipient, eventType dedupe.EventType) {
	s.Require().NoError(s.store.Write(s.ctx, func(st *store.State) error {
		for _, r := range recipients {
			st.InsertEventIfAbsent(store.NewEvent{Recipient: r, Key: dedupe.New(r.ID, eventType, dedupe.Manual())})
		}
		return nil
	}))
}

// breachCredentials makes 4 of 10 recipients submit credentials while all of
// them report, so only the credential threshold fires.
func (s *ServiceSuite) breachCredentials() {
	s.record(s.recipients[:4], dedupe.EventCredentialSubmit)
	s.record(s.recipients, dedupe.EventReported)
}

func (s *ServiceSuite) openViolation() *models.PolicyViolation {
	s.breachCredentials()
	ev, err := s.service.EvaluateCampaign(s.ctx, s.owner, s.campaign.ID, "")
	s.Require().NoError(err)
	s.Require().Len(ev.Created, 1)
	return ev.Created[0]
}

func (s *ServiceSuite) approvedViolation() *models.PolicyViolation {
	v := s.openViolation()
	v, err := s.service.Review(s.ctx, s.owner, v.ID, models.DecisionApproveForRestriction, "confirmed with customer")
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) countAudit(action string) int {
	n := 0
	s.Require().NoError(s.store.Read(s.ctx, func(st *store.State) error {
		for _, e := range st.AuditLogs {
			if e.Action == action {
				n++
			}
		}
		return nil
	}))
	return n
}

func (s *ServiceSuite) TestEvaluateCreatesThenMatches() {
	s.breachCredentials()

	first, err := s.service.EvaluateCampaign(s.ctx, s.owner, s.campaign.ID, "weekly review")
	s.Require().NoError(err)
	s.Equal(10, first.Metrics.SampleSize)
	s.Equal(0.4, first.Metrics.CredentialSubmitRate)
	s.Require().Len(first.Created, 1)
	s.Empty(first.Matched)
	v := first.Created[0]
	s.Equal(models.ViolationHighCredentialSubmitRate, v.Type)
	s.Equal(models.SeverityHigh, v.Severity)
	s.Equal(models.ViolationOpen, v.Status)
	s.Equal(0.30, v.Threshold)
	s.Equal(10, v.SampleSize)

	second, err := s.service.EvaluateCampaign(s.ctx, s.owner, s.campaign.ID, "")
	s.Require().NoError(err)
	s.Empty(second.Created)
	s.Require().Len(second.Matched, 1)
	s.Equal(v.ID, second.Matched[0].ID)

	s.Equal(2, s.countAudit(audit.ActionRiskEvaluate))
	s.Equal(1, s.countAudit(audit.ActionViolationCreate))
}

func (s *ServiceSuite) TestResolvedViolationStillMatches() {
	v := s.openViolation()
	_, err := s.service.Review(s.ctx, s.owner, v.ID, models.DecisionDismiss, "expected in this drill")
	s.Require().NoError(err)

	ev, err := s.service.EvaluateCampaign(s.ctx, s.owner, s.campaign.ID, "")
	s.Require().NoError(err)
	s.Empty(ev.Created)
	s.Require().Len(ev.Matched, 1)
	s.Equal(models.ViolationDismissed, ev.Matched[0].Status)
}

func (s *ServiceSuite) TestSecondCampaignMatchesTenantViolation() {
	v := s.openViolation()

	var emps []*models.Employee
	s.Require().NoError(s.store.Read(s.ctx, func(st *store.State) error {
		emps = st.TenantEmployees(s.tenant.Tenant.ID)
		return nil
	}))
	other := storetest.SeedCampaign(s.T(), s.store, s.tenant, models.CampaignCompleted)
	recipients := storetest.SeedSentRecipients(s.T(), s.store, other, emps)
	s.record(recipients[:4], dedupe.EventCredentialSubmit)
	s.record(recipients, dedupe.EventReported)

	ev, err := s.service.EvaluateCampaign(s.ctx, s.owner, other.ID, "")
	s.Require().NoError(err)
	s.Require().Len(ev.Breaches, 1)
	s.Empty(ev.Created)
	s.Require().Len(ev.Matched, 1)
	s.Equal(v.ID, ev.Matched[0].ID)

	open, err := s.service.ListViolations(s.ctx, s.owner, []models.ViolationStatus{models.ViolationOpen})
	s.Require().NoError(err)
	s.Len(open, 1)
	s.Equal(1, s.countAudit(audit.ActionViolationCreate))
}

func (s *ServiceSuite) TestCampaignRiskIsReadOnly() {
	s.breachCredentials()
	r, err := s.service.CampaignRisk(s.ctx, s.owner, s.campaign.ID)
	s.Require().NoError(err)
	s.Len(r.Breaches, 1)
	s.Empty(r.Violations)
	s.Equal(14.0, r.Risk.Score)
	s.Equal(risk.LevelLow, r.Risk.Level)

	list, err := s.service.ListViolations(s.ctx, s.owner, nil)
	s.Require().NoError(err)
	s.Empty(list)

	other := storetest.SeedTenant(s.T(), s.store, "other")
	_, err = s.service.CampaignRisk(s.ctx, requestcontext.ActorInfo{TenantID: other.Tenant.ID}, s.campaign.ID)
	s.True(dErrors.HasReason(err, "CAMPAIGN_NOT_FOUND"))
}

func (s *ServiceSuite) TestRepeatSusceptibility() {
	s.record(s.recipients[:1], dedupe.EventClick)

	var emps []*models.Employee
	s.Require().NoError(s.store.Read(s.ctx, func(st *store.State) error {
		emps = st.TenantEmployees(s.tenant.Tenant.ID)
		return nil
	}))
	later := storetest.SeedCampaign(s.T(), s.store, s.tenant, models.CampaignCompleted)
	s.Require().NoError(s.store.Write(s.ctx, func(st *store.State) error {
		st.Campaigns[later.ID].CreatedAt = s.campaign.CreatedAt.Add(time.Hour)
		return nil
	}))
	recipients := storetest.SeedSentRecipients(s.T(), s.store, later, emps)
	s.record(recipients[:2], dedupe.EventClick)

	r, err := s.service.CampaignRisk(s.ctx, s.owner, later.ID)
	s.Require().NoError(err)
	s.Equal(0.2, r.Metrics.ClickRate)
	s.Equal(0.1, r.Metrics.RepeatSusceptibilityRate)

	r, err = s.service.CampaignRisk(s.ctx, s.owner, s.campaign.ID)
	s.Require().NoError(err)
	s.Zero(r.Metrics.RepeatSusceptibilityRate)
}

func (s *ServiceSuite) TestOverviewScopes() {
	s.openViolation()

	demo, err := s.service.TenantOverview(s.ctx, s.owner, models.ScopeDemo)
	s.Require().NoError(err)
	s.Equal(1, demo.Campaigns)
	s.Equal(10, demo.Metrics.SampleSize)
	s.Equal(1, demo.OpenViolations)

	reals, err := s.service.TenantOverview(s.ctx, s.owner, models.ScopeReal)
	s.Require().NoError(err)
	s.Zero(reals.Campaigns)
	s.True(reals.Risk.InsufficientData)

	_, err = models.ParseScope("prod")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	scope, err := models.ParseScope("")
	s.Require().NoError(err)
	s.Equal(models.ScopeAll, scope)
}

func (s *ServiceSuite) TestReviewIsOneWay() {
	v := s.openViolation()

	admin := s.owner
	admin.Role = string(models.RoleAdmin)
	_, err := s.service.Review(s.ctx, admin, v.ID, models.DecisionDismiss, "not mine to decide")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	reviewed, err := s.service.Review(s.ctx, s.owner, v.ID, models.DecisionApproveForRestriction, "confirmed")
	s.Require().NoError(err)
	s.Equal(models.ViolationApprovedForRestriction, reviewed.Status)
	s.Equal(s.owner.AdminID, *reviewed.ReviewedByAdminID)

	_, err = s.service.Review(s.ctx, s.owner, v.ID, models.DecisionDismiss, "changed my mind")
	s.True(dErrors.HasReason(err, "VIOLATION_ALREADY_REVIEWED"))

	_, err = s.service.Review(s.ctx, s.owner, id.ViolationID(uuid.New()), models.DecisionDismiss, "missing")
	s.True(dErrors.HasReason(err, "VIOLATION_NOT_FOUND"))

	open, err := s.service.ListViolations(s.ctx, s.owner, []models.ViolationStatus{models.ViolationOpen})
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *ServiceSuite) TestRestrictionRequiresApprovedViolation() {
	tid := s.tenant.Tenant.ID

	_, err := s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Restricted: true, Reason: "abuse"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	v := s.openViolation()
	_, err = s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Restricted: true, Reason: "abuse", ViolationID: &v.ID})
	s.True(dErrors.HasReason(err, "VIOLATION_NOT_APPROVED"))

	missing := id.ViolationID(uuid.New())
	_, err = s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Restricted: true, Reason: "abuse", ViolationID: &missing})
	s.True(dErrors.HasReason(err, "VIOLATION_NOT_FOUND"))

	s.Equal(0, s.countAudit(audit.ActionTenantRestrict))
}

func (s *ServiceSuite) TestDismissedViolationCannotRestrict() {
	v := s.openViolation()
	_, err := s.service.Review(s.ctx, s.owner, v.ID, models.DecisionDismiss, "expected")
	s.Require().NoError(err)

	_, err = s.service.SetRestriction(s.ctx, s.owner, s.tenant.Tenant.ID, RestrictionInput{Restricted: true, Reason: "abuse", ViolationID: &v.ID})
	s.True(dErrors.HasReason(err, "VIOLATION_NOT_APPROVED"))
}

func (s *ServiceSuite) TestRestrictAndLift() {
	v := s.approvedViolation()
	tid := s.tenant.Tenant.ID

	t, err := s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Restricted: true, Reason: "confirmed abuse", ViolationID: &v.ID})
	s.Require().NoError(err)
	s.Equal(models.TenantStatusRestricted, t.Status)
	s.True(t.SendPaused)
	s.Equal(v.ID, *t.RestrictionViolationID)

	_, err = s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Restricted: true, Reason: "again", ViolationID: &v.ID})
	s.True(dErrors.HasReason(err, "TENANT_ALREADY_RESTRICTED"))

	t, err = s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Reason: "remediated"})
	s.Require().NoError(err)
	s.Equal(models.TenantStatusActive, t.Status)
	s.False(t.SendPaused)

	_, err = s.service.SetRestriction(s.ctx, s.owner, tid, RestrictionInput{Reason: "remediated"})
	s.True(dErrors.HasReason(err, "TENANT_NOT_RESTRICTED"))

	s.Equal(1, s.countAudit(audit.ActionTenantRestrict))
	s.Equal(1, s.countAudit(audit.ActionTenantLiftRestriction))
	s.Require().NoError(s.store.Read(s.ctx, func(st *store.State) error {
		s.Require().Len(st.OperationalControls, 2)
		s.True(st.OperationalControls[0].Paused)
		s.False(st.OperationalControls[1].Paused)
		s.Equal(models.ControlTenant, st.OperationalControls[1].Scope)
		return nil
	}))
}

func (s *ServiceSuite) TestRestrictionIsOwnerAndTenantScoped() {
	v := s.approvedViolation()

	admin := s.owner
	admin.Role = string(models.RoleAdmin)
	_, err := s.service.SetRestriction(s.ctx, admin, s.tenant.Tenant.ID, RestrictionInput{Restricted: true, Reason: "abuse", ViolationID: &v.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	other := storetest.SeedTenant(s.T(), s.store, "other")
	_, err = s.service.SetRestriction(s.ctx, s.owner, other.Tenant.ID, RestrictionInput{Restricted: true, Reason: "abuse", ViolationID: &v.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	otherOwner := requestcontext.ActorInfo{AdminID: other.Owner.ID, TenantID: other.Tenant.ID, Role: string(models.RoleOwner)}
	_, err = s.service.SetRestriction(s.ctx, otherOwner, other.Tenant.ID, RestrictionInput{Restricted: true, Reason: "abuse", ViolationID: &v.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
