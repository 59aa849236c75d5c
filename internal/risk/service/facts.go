package service

import (
	"time"

	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/risk"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
)

// clickHistory records, per employee, the creation times of the campaigns
// in which they clicked.
type clickHistory map[id.EmployeeID][]time.Time

func tenantClickHistory(st *store.State, tenantID id.TenantID) clickHistory {
	h := clickHistory{}
	for _, c := range st.TenantCampaigns(tenantID) {
		for _, r := range st.CampaignRecipients(c.ID) {
			for _, e := range st.RecipientEvents(r.ID) {
				if e.Type == dedupe.EventClick {
					h[r.EmployeeID] = append(h[r.EmployeeID], c.CreatedAt)
					break
				}
			}
		}
	}
	return h
}

func (h clickHistory) clickedBefore(employeeID id.EmployeeID, campaignCreated time.Time) bool {
	for _, at := range h[employeeID] {
		if at.Before(campaignCreated) {
			return true
		}
	}
	return false
}

// campaignFacts gathers one RecipientFacts per sent recipient of c.
func campaignFacts(st *store.State, c *models.Campaign, history clickHistory) []risk.RecipientFacts {
	var out []risk.RecipientFacts
	for _, r := range st.CampaignRecipients(c.ID) {
		if r.SendStatus != models.SendSent {
			continue
		}
		var f risk.RecipientFacts
		for _, e := range st.RecipientEvents(r.ID) {
			switch e.Type {
			case dedupe.EventOpen:
				f.Opened = true
			case dedupe.EventClick:
				f.Clicked = true
			case dedupe.EventCredentialSubmit:
				f.SubmittedCredentials = true
			case dedupe.EventReported:
				if !f.Reported && r.SentAt != nil {
					d := max(e.OccurredAt.Sub(*r.SentAt), 0)
					f.TimeToReport = &d
				}
				f.Reported = true
			}
		}
		if f.Clicked {
			f.ClickedBefore = history.clickedBefore(r.EmployeeID, c.CreatedAt)
		}
		if session, ok := st.SessionForRecipient(r.ID); ok {
			f.TrainingEnrolled = true
			f.TrainingCompleted = session.IsCompleted()
		}
		out = append(out, f)
	}
	return out
}
