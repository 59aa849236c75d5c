package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newCampaign(t *testing.T) *Campaign {
	t.Helper()
	c, err := NewCampaign(NewCampaignParams{
		ID:           id.CampaignID(uuid.New()),
		TenantID:     id.TenantID(uuid.New()),
		Name:         "Q1 payroll lure",
		TemplateName: "payroll-update",
		SendingMode:  SendingModeDedicated,
		DataScope:    DataClassDemoOnly,
	}, now)
	require.NoError(t, err)
	return c
}

func TestNewCampaignValidation(t *testing.T) {
	_, err := NewCampaign(NewCampaignParams{Name: "x", TemplateName: "payroll", SendingMode: SendingModeDedicated}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewCampaign(NewCampaignParams{Name: "ok name", TemplateName: "payroll", SendingMode: "carrier"}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestCampaignLifecycle(t *testing.T) {
	c := newCampaign(t)
	assert.Equal(t, CampaignDraft, c.Status)

	err := c.CanSchedule()
	assert.True(t, dErrors.HasReason(err, "PREVIEW_REQUIRED"))

	require.NoError(t, c.CanPreview())
	c.ApplyPreview(now)
	require.NoError(t, c.CanPreview(), "re-preview is allowed")

	require.NoError(t, c.CanSchedule())
	c.ApplySchedule(now.Add(time.Hour), now)
	assert.Equal(t, CampaignScheduled, c.Status)

	err = c.CanPreview()
	assert.True(t, dErrors.HasReason(err, "INVALID_CAMPAIGN_STATE"))

	require.NoError(t, c.CanDispatch(false))
	dispatchID := id.DispatchID(uuid.New())
	c.ApplyDispatchStart(dispatchID, now)
	assert.Equal(t, CampaignSending, c.Status)
	assert.True(t, dErrors.HasReason(c.CanReserveDispatch(), "DISPATCH_IN_PROGRESS"))

	c.ApplyDispatchFinish(dispatchID, now)
	assert.Equal(t, CampaignCompleted, c.Status)
	assert.Nil(t, c.ActiveDispatchID)
}

func TestCampaignDispatchRequiresScheduleUnlessForced(t *testing.T) {
	c := newCampaign(t)
	assert.True(t, dErrors.HasReason(c.CanDispatch(false), "SCHEDULE_REQUIRED"))
	assert.NoError(t, c.CanDispatch(true))
}

func TestCampaignPauseDuringSendingKeepsPaused(t *testing.T) {
	c := newCampaign(t)
	dispatchID := id.DispatchID(uuid.New())
	c.ApplyDispatchStart(dispatchID, now)
	c.ApplyPaused(true, now)
	c.ApplyDispatchFinish(dispatchID, now)

	assert.Equal(t, CampaignPaused, c.Status)
	assert.Nil(t, c.ActiveDispatchID)
}

func TestCampaignUnpauseRestoresStatus(t *testing.T) {
	c := newCampaign(t)
	c.ApplyPaused(true, now)
	assert.Equal(t, CampaignPaused, c.Status)
	c.ApplyPaused(false, now)
	assert.Equal(t, CampaignDraft, c.Status)

	c.ApplySchedule(now, now)
	c.ApplyPaused(true, now)
	c.ApplyPaused(false, now)
	assert.Equal(t, CampaignScheduled, c.Status)
}

func TestCampaignUnpauseMidDispatchCompletes(t *testing.T) {
	c := newCampaign(t)
	c.ApplySchedule(now, now)
	dispatchID := id.DispatchID(uuid.New())
	c.ApplyDispatchStart(dispatchID, now)
	c.ApplyPaused(true, now)
	c.ApplyPaused(false, now)
	assert.Equal(t, CampaignSending, c.Status)

	c.ApplyDispatchFinish(dispatchID, now)
	assert.Equal(t, CampaignCompleted, c.Status)
}

func TestReleaseStaleDispatch(t *testing.T) {
	c := newCampaign(t)
	assert.False(t, c.ReleaseStaleDispatch(now))

	c.ApplySchedule(now, now)
	c.ApplyDispatchStart(id.DispatchID(uuid.New()), now)
	assert.True(t, c.ReleaseStaleDispatch(now))
	assert.Equal(t, CampaignScheduled, c.Status)
	assert.Nil(t, c.ActiveDispatchID)
}

func TestRecipientSendState(t *testing.T) {
	c := newCampaign(t)
	e := &Employee{ID: id.EmployeeID(uuid.New()), Email: "ana@acme.test", FullName: "Ana Diaz"}
	r := NewRecipient(id.RecipientID(uuid.New()), c, e, now)

	assert.Len(t, r.TrackingToken, 32)
	assert.True(t, r.NeedsSend())
	r.MarkFailed()
	assert.True(t, r.NeedsSend())
	r.MarkSent("mock-1", now)
	assert.False(t, r.NeedsSend())
	assert.Equal(t, "mock-1", *r.ProviderMessageID)
	assert.NotEqual(t, r.TrackingToken, NewTrackingToken())
}

func TestTenantRestriction(t *testing.T) {
	tenant, err := NewTenant(id.TenantID(uuid.New()), "Acme", "acme", SendingModeDedicated, now)
	require.NoError(t, err)

	assert.True(t, dErrors.HasReason(tenant.CanLiftRestriction(), "TENANT_NOT_RESTRICTED"))
	require.NoError(t, tenant.CanRestrict())
	tenant.ApplyRestriction(id.ViolationID(uuid.New()), now)
	assert.True(t, tenant.IsRestricted())
	assert.True(t, tenant.SendPaused)

	err = tenant.CanSetSendPaused(false)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLocked))
	assert.NoError(t, tenant.CanSetSendPaused(true))

	require.NoError(t, tenant.CanLiftRestriction())
	tenant.ApplyLiftRestriction(now)
	assert.False(t, tenant.IsRestricted())
	assert.False(t, tenant.SendPaused)
	assert.Nil(t, tenant.RestrictionViolationID)
}

func TestSendingDomainEligibility(t *testing.T) {
	d := &SendingDomain{Mode: SendingModeCustomerDomain, VerificationStatus: SendingDomainPending}
	assert.True(t, dErrors.HasReason(d.CanSendFor(SendingModeCustomerDomain), "CUSTOMER_DOMAIN_NOT_VERIFIED"))
	require.NoError(t, d.CanVerifyStub())
	d.ApplyStubVerification()
	assert.NoError(t, d.CanSendFor(SendingModeCustomerDomain))

	dedicated := &SendingDomain{Mode: SendingModeDedicated, VerificationStatus: SendingDomainActive}
	assert.NoError(t, dedicated.CanSendFor(SendingModeDedicated))
	assert.True(t, dErrors.HasCode(dedicated.CanVerifyStub(), dErrors.CodeNotFound))
}

func TestViolationReviewIsOneWay(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	for _, decision := range []ReviewDecision{DecisionApproveForRestriction, DecisionDismiss} {
		v := &PolicyViolation{TenantID: tenantID, Status: ViolationOpen}
		require.NoError(t, v.CanReview())
		v.ApplyReview(decision, id.AdminID(uuid.New()), "looked at it", now)
		assert.NotEqual(t, ViolationOpen, v.Status)

		err := v.CanReview()
		assert.True(t, dErrors.HasReason(err, "VIOLATION_ALREADY_REVIEWED"))
	}
}

func TestViolationAuthorizesRestriction(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	v := &PolicyViolation{TenantID: tenantID, Status: ViolationOpen}
	assert.True(t, dErrors.HasReason(v.CanAuthorizeRestriction(tenantID), "VIOLATION_NOT_APPROVED"))

	v.ApplyReview(DecisionApproveForRestriction, id.AdminID(uuid.New()), "confirmed", now)
	assert.NoError(t, v.CanAuthorizeRestriction(tenantID))
	assert.True(t, dErrors.HasCode(v.CanAuthorizeRestriction(id.TenantID(uuid.New())), dErrors.CodeNotFound))
}

func TestCredentialMetadataDropsPassword(t *testing.T) {
	meta := CredentialMetadata("ana@acme.test", "hunter2")
	raw, err := json.Marshal(meta)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "hunter2")
	assert.Equal(t, true, meta["hasPasswordInput"])
	assert.Equal(t, "ana@acme.test", meta["username"])

	empty := CredentialMetadata("", "")
	assert.Nil(t, empty["username"])
	assert.Equal(t, false, empty["hasPasswordInput"])
}

func TestTrainingCompletionSetOnce(t *testing.T) {
	s := &TrainingSession{}
	s.ApplyCompletion(now)
	s.ApplyCompletion(now.Add(time.Hour))
	assert.Equal(t, now, *s.CompletedAt)
}

func TestLifecycleDataClass(t *testing.T) {
	assert.Equal(t, DataClassDemoOnly, LifecycleSandbox.DataClass())
	assert.Equal(t, DataClassReal, LifecycleProduction.DataClass())
	assert.Equal(t, "demo-only", DataClassDemoOnly.Badge())
}
