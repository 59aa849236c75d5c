package service

import (
	"context"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/platform/tracing"
	"phishsim/internal/risk"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	"phishsim/pkg/requestcontext"
)

// CampaignRisk is the explainable risk of one campaign.
type CampaignRisk struct {
	CampaignID id.CampaignID             `json:"campaignId"`
	DataScope  models.DataClass          `json:"dataScope"`
	Metrics    risk.Metrics              `json:"metrics"`
	Risk       risk.Assessment           `json:"risk"`
	Breaches   []risk.Breach             `json:"breaches"`
	Violations []*models.PolicyViolation `json:"violations"`
}

// Evaluation is a CampaignRisk plus the violations the evaluation raised or
// found already raised.
type Evaluation struct {
	CampaignRisk
	Created []*models.PolicyViolation `json:"created"`
	Matched []*models.PolicyViolation `json:"matched"`
}

func assess(st *store.State, c *models.Campaign) CampaignRisk {
	m := risk.Compute(campaignFacts(st, c, tenantClickHistory(st, c.TenantID)))
	breaches := risk.Detect(m)
	if breaches == nil {
		breaches = []risk.Breach{}
	}
	violations := []*models.PolicyViolation{}
	for _, v := range st.TenantViolations(c.TenantID) {
		if v.CampaignID != nil && *v.CampaignID == c.ID {
			violations = append(violations, v)
		}
	}
	return CampaignRisk{
		CampaignID: c.ID,
		DataScope:  c.DataScope,
		Metrics:    m,
		Risk:       risk.Score(m),
		Breaches:   breaches,
		Violations: violations,
	}
}

// CampaignRisk computes a campaign's risk without raising violations.
func (s *Service) CampaignRisk(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) (*CampaignRisk, error) {
	return store.View(ctx, s.tx, func(st *store.State) (*CampaignRisk, error) {
		c, ok := st.Campaigns[campaignID]
		if !ok || c.TenantID != actor.TenantID {
			return nil, campaignNotFound()
		}
		r := assess(st, c)
		return &r, nil
	})
}

// EvaluateCampaign raises a violation for each breached threshold. A
// violation of the same type already raised for the tenant, by any campaign
// and in any status, is returned as matched instead, so a condition is
// flagged once per tenant however many campaigns breach it.
func (s *Service) EvaluateCampaign(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, note string) (*Evaluation, error) {
	ctx, span := tracing.Start(ctx, "risk.evaluate_campaign",
		"campaign_id", campaignID.String(),
	)
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*Evaluation, error) {
		c, ok := st.Campaigns[campaignID]
		if !ok || c.TenantID != actor.TenantID {
			return nil, campaignNotFound()
		}
		assessment := assess(st, c)
		ev := &Evaluation{
			CampaignRisk: assessment,
			Created:      []*models.PolicyViolation{},
			Matched:      []*models.PolicyViolation{},
		}

		existing := make(map[models.ViolationType]*models.PolicyViolation)
		for _, v := range st.TenantViolations(c.TenantID) {
			if _, seen := existing[v.Type]; !seen {
				existing[v.Type] = v
			}
		}
		for _, b := range assessment.Breaches {
			if v, ok := existing[b.Type]; ok {
				ev.Matched = append(ev.Matched, v)
				continue
			}
			cid := c.ID
			v := &models.PolicyViolation{
				ID:         id.ViolationID(st.NewID()),
				TenantID:   c.TenantID,
				CampaignID: &cid,
				Type:       b.Type,
				Severity:   b.Severity,
				Status:     models.ViolationOpen,
				Summary:    b.Summary(),
				Threshold:  b.Threshold,
				Observed:   b.Observed,
				SampleSize: b.SampleSize,
				CreatedAt:  st.Now(),
			}
			st.Violations[v.ID] = v
			ev.Created = append(ev.Created, v)
			ev.Violations = append(ev.Violations, v)

			entry := audit.ByAdmin(c.TenantID, actor.AdminID, audit.ActionViolationCreate, audit.ResourceViolation, v.ID.String())
			entry.Metadata = map[string]any{
				"campaignId": c.ID.String(),
				"type":       string(v.Type),
				"observed":   v.Observed,
				"threshold":  v.Threshold,
				"sampleSize": v.SampleSize,
			}
			st.AppendAudit(entry)
		}

		entry := audit.ByAdmin(c.TenantID, actor.AdminID, audit.ActionRiskEvaluate, audit.ResourceCampaign, c.ID.String())
		entry.Reason = audit.Reason(note)
		entry.Metadata = map[string]any{
			"score":   assessment.Risk.Score,
			"level":   string(assessment.Risk.Level),
			"created": len(ev.Created),
			"matched": len(ev.Matched),
		}
		st.AppendAudit(entry)
		return ev, nil
	})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}

	for _, v := range res.Created {
		s.metrics.IncrementViolationCreated(string(v.Type))
	}
	s.logger.InfoContext(ctx, "campaign risk evaluated",
		"tenant_id", actor.TenantID.String(),
		"campaign_id", campaignID.String(),
		"score", res.Risk.Score,
		"level", string(res.Risk.Level),
		"created", len(res.Created),
		"matched", len(res.Matched),
	)
	return res, nil
}

// Overview aggregates risk across a tenant's campaigns.
type Overview struct {
	Scope          models.Scope    `json:"scope"`
	Campaigns      int             `json:"campaigns"`
	Metrics        risk.Metrics    `json:"metrics"`
	Risk           risk.Assessment `json:"risk"`
	OpenViolations int             `json:"openViolations"`
}

func (s *Service) TenantOverview(ctx context.Context, actor requestcontext.ActorInfo, scope models.Scope) (*Overview, error) {
	return store.View(ctx, s.tx, func(st *store.State) (*Overview, error) {
		history := tenantClickHistory(st, actor.TenantID)
		var facts []risk.RecipientFacts
		campaigns := 0
		for _, c := range st.TenantCampaigns(actor.TenantID) {
			if !scope.Includes(c.DataScope) {
				continue
			}
			campaigns++
			facts = append(facts, campaignFacts(st, c, history)...)
		}
		open := 0
		for _, v := range st.TenantViolations(actor.TenantID) {
			if v.Status == models.ViolationOpen {
				open++
			}
		}
		m := risk.Compute(facts)
		return &Overview{
			Scope:          scope,
			Campaigns:      campaigns,
			Metrics:        m,
			Risk:           risk.Score(m),
			OpenViolations: open,
		}, nil
	})
}
