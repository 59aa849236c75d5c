package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

// Campaign is a simulated phishing send plus its training module.
//
// Status machine: draft → previewed → scheduled → sending → completed.
// Paused is orthogonal: setting it forces status paused, clearing it restores
// scheduled when ScheduledAt is set and draft otherwise. ActiveDispatchID is
// the reservation held between the two write phases of a dispatch.
type Campaign struct {
	ID               id.CampaignID      `json:"id"`
	TenantID         id.TenantID        `json:"tenantId"`
	Name             string             `json:"name"`
	TemplateName     string             `json:"templateName"`
	TrainingModuleID string             `json:"trainingModuleId"`
	SendingMode      SendingMode        `json:"sendingMode"`
	SendingDomainID  id.SendingDomainID `json:"sendingDomainId"`
	Status           CampaignStatus     `json:"status"`
	Paused           bool               `json:"paused"`
	ScheduledAt      *time.Time         `json:"scheduledAt"`
	DataScope        DataClass          `json:"dataScope"`
	CreatedByAdminID id.AdminID         `json:"createdByAdminId"`
	ActiveDispatchID *id.DispatchID     `json:"activeDispatchId,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// NewCampaignParams groups the inputs of NewCampaign.
type NewCampaignParams struct {
	ID               id.CampaignID
	TenantID         id.TenantID
	Name             string
	TemplateName     string
	TrainingModuleID string
	SendingMode      SendingMode
	SendingDomainID  id.SendingDomainID
	DataScope        DataClass
	CreatedBy        id.AdminID
}

func NewCampaign(p NewCampaignParams, now time.Time) (*Campaign, error) {
	name := strings.TrimSpace(p.Name)
	template := strings.TrimSpace(p.TemplateName)
	if len(name) < 2 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "campaign name must be at least 2 characters")
	}
	if len(template) < 2 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "template name must be at least 2 characters")
	}
	if !p.SendingMode.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown sending mode")
	}
	return &Campaign{
		ID:               p.ID,
		TenantID:         p.TenantID,
		Name:             name,
		TemplateName:     template,
		TrainingModuleID: p.TrainingModuleID,
		SendingMode:      p.SendingMode,
		SendingDomainID:  p.SendingDomainID,
		Status:           CampaignDraft,
		DataScope:        p.DataScope,
		CreatedByAdminID: p.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (c *Campaign) CanPreview() error {
	if c.Status != CampaignDraft && c.Status != CampaignPreviewed {
		return dErrors.New(dErrors.CodeConflict, "campaign can only be previewed before scheduling").
			WithReason("INVALID_CAMPAIGN_STATE").
			WithDetail("status", string(c.Status))
	}
	return nil
}

func (c *Campaign) ApplyPreview(now time.Time) {
	c.Status = CampaignPreviewed
	c.UpdatedAt = now
}

func (c *Campaign) CanSchedule() error {
	if c.Status != CampaignPreviewed {
		return dErrors.New(dErrors.CodeConflict, "campaign preview is required before scheduling").
			WithReason("PREVIEW_REQUIRED")
	}
	return nil
}

func (c *Campaign) ApplySchedule(at, now time.Time) {
	c.ScheduledAt = &at
	c.Status = CampaignScheduled
	c.UpdatedAt = now
}

// CanDispatch checks the status half of the dispatch guard; force bypasses it.
func (c *Campaign) CanDispatch(force bool) error {
	if c.Status != CampaignScheduled && !force {
		return dErrors.New(dErrors.CodeConflict, "campaign must be scheduled before dispatch").
			WithReason("SCHEDULE_REQUIRED")
	}
	return nil
}

// CanReserveDispatch rejects a second dispatch while one is between phases.
func (c *Campaign) CanReserveDispatch() error {
	if c.ActiveDispatchID != nil {
		return dErrors.New(dErrors.CodeConflict, "a dispatch for this campaign is already in progress").
			WithReason("DISPATCH_IN_PROGRESS")
	}
	return nil
}

func (c *Campaign) ApplyDispatchStart(dispatchID id.DispatchID, now time.Time) {
	c.Status = CampaignSending
	c.ActiveDispatchID = &dispatchID
	c.UpdatedAt = now
}

// ApplyDispatchFinish releases the reservation when it still belongs to
// dispatchID and completes the campaign unless it left sending meanwhile
// (for example because it was paused).
func (c *Campaign) ApplyDispatchFinish(dispatchID id.DispatchID, now time.Time) {
	if c.ActiveDispatchID != nil && *c.ActiveDispatchID == dispatchID {
		c.ActiveDispatchID = nil
	}
	if c.Status == CampaignSending {
		c.Status = CampaignCompleted
	}
	c.UpdatedAt = now
}

// ReleaseStaleDispatch clears a reservation left by a process that died
// between phases. Recipients still pending are retried by the next dispatch.
func (c *Campaign) ReleaseStaleDispatch(now time.Time) bool {
	if c.ActiveDispatchID == nil {
		return false
	}
	c.ActiveDispatchID = nil
	if c.Status == CampaignSending {
		c.Status = CampaignScheduled
		if c.ScheduledAt == nil {
			c.Status = CampaignDraft
		}
	}
	c.UpdatedAt = now
	return true
}

func (c *Campaign) ApplyPaused(paused bool, now time.Time) {
	c.Paused = paused
	switch {
	case paused:
		c.Status = CampaignPaused
	case c.ActiveDispatchID != nil:
		// Resumed mid-dispatch: the record phase completes it.
		c.Status = CampaignSending
	case c.ScheduledAt != nil:
		c.Status = CampaignScheduled
	default:
		c.Status = CampaignDraft
	}
	c.UpdatedAt = now
}

// CampaignRecipient is the unique (campaign, employee) send record.
type CampaignRecipient struct {
	ID                id.RecipientID `json:"id"`
	TenantID          id.TenantID    `json:"tenantId"`
	CampaignID        id.CampaignID  `json:"campaignId"`
	EmployeeID        id.EmployeeID  `json:"employeeId"`
	Email             string         `json:"email"`
	FullName          string         `json:"fullName"`
	TrackingToken     string         `json:"trackingToken"`
	SendStatus        SendStatus     `json:"sendStatus"`
	ProviderMessageID *string        `json:"providerMessageId"`
	SentAt            *time.Time     `json:"sentAt"`
	DataClass         DataClass      `json:"dataClass"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// NewTrackingToken returns 128 bits of randomness as 32 hex characters.
func NewTrackingToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func NewRecipient(recipientID id.RecipientID, c *Campaign, e *Employee, now time.Time) *CampaignRecipient {
	return &CampaignRecipient{
		ID:            recipientID,
		TenantID:      c.TenantID,
		CampaignID:    c.ID,
		EmployeeID:    e.ID,
		Email:         e.Email,
		FullName:      e.FullName,
		TrackingToken: NewTrackingToken(),
		SendStatus:    SendPending,
		DataClass:     c.DataScope,
		CreatedAt:     now,
	}
}

// NeedsSend reports whether dispatch should (re)try this recipient.
func (r *CampaignRecipient) NeedsSend() bool {
	return r.SendStatus != SendSent
}

func (r *CampaignRecipient) MarkSent(messageID string, acceptedAt time.Time) {
	r.SendStatus = SendSent
	r.ProviderMessageID = &messageID
	r.SentAt = &acceptedAt
}

func (r *CampaignRecipient) MarkFailed() {
	r.SendStatus = SendFailed
}
