package service

import (
	"context"
	"time"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/pause"
	"phishsim/internal/store"
	"phishsim/internal/training"
	"phishsim/internal/transport/email"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

// CreateInput carries the fields of a new campaign. TrainingModuleID is
// optional and defaults to the catalog default.
type CreateInput struct {
	Name             string
	TemplateName     string
	SendingMode      models.SendingMode
	SendingDomainID  id.SendingDomainID
	TrainingModuleID string
}

// Create adds a draft campaign. Its data scope follows the tenant's
// lifecycle mode at creation time.
func (s *Service) Create(ctx context.Context, actor requestcontext.ActorInfo, in CreateInput) (*models.Campaign, error) {
	moduleID := in.TrainingModuleID
	if moduleID == "" {
		moduleID = s.catalog.DefaultID()
	}
	if _, ok := s.catalog.Get(moduleID); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown training module").
			WithReason("UNKNOWN_TRAINING_MODULE").
			WithDetail("trainingModuleId", moduleID)
	}

	c, err := store.Update(ctx, s.tx, func(st *store.State) (*models.Campaign, error) {
		tenant, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		d, ok := st.SendingDomains[in.SendingDomainID]
		if !ok || d.TenantID != tenant.ID {
			return nil, sendingDomainNotFound()
		}
		if d.Mode != in.SendingMode {
			return nil, dErrors.New(dErrors.CodeValidation, "campaign sendingMode must match the selected sending domain").
				WithReason("SENDING_MODE_MISMATCH")
		}
		c, err := models.NewCampaign(models.NewCampaignParams{
			ID:               id.CampaignID(st.NewID()),
			TenantID:         tenant.ID,
			Name:             in.Name,
			TemplateName:     in.TemplateName,
			TrainingModuleID: moduleID,
			SendingMode:      in.SendingMode,
			SendingDomainID:  d.ID,
			DataScope:        tenant.LifecycleMode.DataClass(),
			CreatedBy:        actor.AdminID,
		}, st.Now())
		if err != nil {
			return nil, invariantToValidation(err)
		}
		st.Campaigns[c.ID] = c

		entry := audit.ByAdmin(tenant.ID, actor.AdminID, audit.ActionCampaignCreate, audit.ResourceCampaign, c.ID.String())
		entry.Metadata = map[string]any{"sendingMode": string(c.SendingMode), "trainingModuleId": moduleID}
		st.AppendAudit(entry)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "campaign created",
		"tenant_id", c.TenantID.String(),
		"campaign_id", c.ID.String(),
		"sending_mode", string(c.SendingMode),
	)
	return c, nil
}

// RecipientStats summarizes a campaign's send outcomes.
type RecipientStats struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// CampaignSummary is a campaign with its recipient stats.
type CampaignSummary struct {
	*models.Campaign
	RecipientStats RecipientStats `json:"recipientStats"`
}

// List returns the tenant's campaigns oldest first.
func (s *Service) List(ctx context.Context, actor requestcontext.ActorInfo) ([]CampaignSummary, error) {
	return store.View(ctx, s.tx, func(st *store.State) ([]CampaignSummary, error) {
		campaigns := st.TenantCampaigns(actor.TenantID)
		out := make([]CampaignSummary, 0, len(campaigns))
		for _, c := range campaigns {
			var stats RecipientStats
			for _, r := range st.CampaignRecipients(c.ID) {
				stats.Total++
				switch r.SendStatus {
				case models.SendSent:
					stats.Sent++
				case models.SendFailed:
					stats.Failed++
				}
			}
			out = append(out, CampaignSummary{Campaign: c, RecipientStats: stats})
		}
		return out, nil
	})
}

type EmailPreview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
	Badge   string `json:"badge"`
}

type JourneyPreview struct {
	LandingPath      string `json:"landingPath"`
	TrainingModuleID string `json:"trainingModuleId"`
	QuizQuestions    int    `json:"quizQuestions"`
}

type PreviewResult struct {
	CampaignID             id.CampaignID    `json:"campaignId"`
	DataScope              models.DataClass `json:"dataScope"`
	EmailPreview           EmailPreview     `json:"emailPreview"`
	EmployeeJourneyPreview JourneyPreview   `json:"employeeJourneyPreview"`
}

const previewEmployeeName = "{{employee_name}}"

// Preview renders the simulation email and moves the campaign to previewed.
// Only draft and previewed campaigns can be previewed.
func (s *Service) Preview(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) (*PreviewResult, error) {
	return store.Update(ctx, s.tx, func(st *store.State) (*PreviewResult, error) {
		c, err := tenantCampaign(st, actor.TenantID, campaignID)
		if err != nil {
			return nil, err
		}
		if err := c.CanPreview(); err != nil {
			return nil, err
		}
		module := s.catalog.Resolve(c.TrainingModuleID)
		content, err := s.renderer.Render(email.Vars{
			EmployeeName: previewEmployeeName,
			CampaignName: c.Name,
			TemplateName: c.TemplateName,
			ClickURL:     s.baseURL + "/events/click",
			ReportURL:    s.baseURL + "/events/report-phish",
			Badge:        c.DataScope.Badge(),
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render preview")
		}

		c.ApplyPreview(st.Now())
		st.AppendAudit(audit.ByAdmin(c.TenantID, actor.AdminID, audit.ActionCampaignPreview, audit.ResourceCampaign, c.ID.String()))

		return &PreviewResult{
			CampaignID: c.ID,
			DataScope:  c.DataScope,
			EmailPreview: EmailPreview{
				Subject: content.Subject,
				Body:    content.Text,
				HTML:    content.HTML,
				Badge:   c.DataScope.Badge(),
			},
			EmployeeJourneyPreview: JourneyPreview{
				LandingPath:      "/training/preview/" + c.ID.String(),
				TrainingModuleID: module.ID,
				QuizQuestions:    len(module.Questions),
			},
		}, nil
	})
}

// Schedule moves a previewed campaign to scheduled. Guards run in a fixed
// order so the reported error is deterministic.
func (s *Service) Schedule(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, at time.Time) (*models.Campaign, error) {
	if at.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "scheduledAt is required")
	}
	c, err := store.Update(ctx, s.tx, func(st *store.State) (*models.Campaign, error) {
		tenant, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		c, err := tenantCampaign(st, tenant.ID, campaignID)
		if err != nil {
			return nil, err
		}
		if tenant.IsRestricted() {
			return nil, models.RestrictedError()
		}
		if err := pauseState(st, tenant, c).Err(); err != nil {
			return nil, err
		}
		if err := c.CanSchedule(); err != nil {
			return nil, err
		}
		if _, err := sendingDomainFor(st, c); err != nil {
			return nil, err
		}

		c.ApplySchedule(at.UTC(), st.Now())
		entry := audit.ByAdmin(tenant.ID, actor.AdminID, audit.ActionCampaignSchedule, audit.ResourceCampaign, c.ID.String())
		entry.Metadata = map[string]any{"scheduledAt": c.ScheduledAt.Format(time.RFC3339)}
		st.AppendAudit(entry)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "campaign scheduled",
		"tenant_id", c.TenantID.String(),
		"campaign_id", c.ID.String(),
	)
	return c, nil
}

// Recipients lists a campaign's recipients oldest first.
func (s *Service) Recipients(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) ([]*models.CampaignRecipient, error) {
	return store.View(ctx, s.tx, func(st *store.State) ([]*models.CampaignRecipient, error) {
		if _, err := tenantCampaign(st, actor.TenantID, campaignID); err != nil {
			return nil, err
		}
		return st.CampaignRecipients(campaignID), nil
	})
}

// SetPaused pauses or resumes one campaign and journals the change.
func (s *Service) SetPaused(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, paused bool, reason string) (*models.Campaign, error) {
	c, err := store.Update(ctx, s.tx, func(st *store.State) (*models.Campaign, error) {
		c, err := tenantCampaign(st, actor.TenantID, campaignID)
		if err != nil {
			return nil, err
		}
		c.ApplyPaused(paused, st.Now())

		scopeID := c.ID.String()
		st.AppendControl(&models.OperationalControl{
			Scope:        models.ControlCampaign,
			ScopeID:      &scopeID,
			Paused:       paused,
			Reason:       reason,
			SetByAdminID: actor.AdminID,
		})
		entry := audit.ByAdmin(c.TenantID, actor.AdminID, audit.ActionPauseCampaign, audit.ResourceCampaign, c.ID.String())
		entry.Reason = audit.Reason(reason)
		entry.Metadata = map[string]any{"paused": paused}
		st.AppendAudit(entry)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "campaign pause changed",
		"tenant_id", c.TenantID.String(),
		"campaign_id", c.ID.String(),
		"paused", paused,
	)
	return c, nil
}

type TrainingPreviewResult struct {
	CampaignID id.CampaignID       `json:"campaignId"`
	DataClass  models.DataClass    `json:"dataClass"`
	Module     training.Module     `json:"module"`
	Quiz       []training.Question `json:"quiz"`
	Badge      string              `json:"badge"`
}

// TrainingPreview shows the module recipients of this campaign will take.
func (s *Service) TrainingPreview(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) (*TrainingPreviewResult, error) {
	return store.View(ctx, s.tx, func(st *store.State) (*TrainingPreviewResult, error) {
		c, err := tenantCampaign(st, actor.TenantID, campaignID)
		if err != nil {
			return nil, err
		}
		module := s.catalog.Resolve(c.TrainingModuleID)
		return &TrainingPreviewResult{
			CampaignID: c.ID,
			DataClass:  c.DataScope,
			Module:     module,
			Quiz:       module.Questions,
			Badge:      c.DataScope.Badge(),
		}, nil
	})
}

func pauseState(st *store.State, tenant *models.Tenant, c *models.Campaign) pause.Decision {
	return pause.Resolve(pause.State{
		Global:   st.System.GlobalSendPaused,
		Tenant:   tenant.SendPaused,
		Campaign: c.Paused,
	})
}
