package models

import (
	"time"

	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

// PolicyViolation is a threshold breach awaiting human review.
//
// Status graph: open → approved_for_restriction | dismissed. Both targets are
// terminal. Only an approved violation authorizes restricting its tenant.
type PolicyViolation struct {
	ID                id.ViolationID  `json:"id"`
	TenantID          id.TenantID     `json:"tenantId"`
	CampaignID        *id.CampaignID  `json:"campaignId"`
	Type              ViolationType   `json:"type"`
	Severity          Severity        `json:"severity"`
	Status            ViolationStatus `json:"status"`
	Summary           string          `json:"summary"`
	Threshold         float64         `json:"threshold"`
	Observed          float64         `json:"observed"`
	SampleSize        int             `json:"sampleSize"`
	CreatedAt         time.Time       `json:"createdAt"`
	ReviewedAt        *time.Time      `json:"reviewedAt"`
	ReviewedByAdminID *id.AdminID     `json:"reviewedByAdminId"`
	ReviewNote        *string         `json:"reviewNote"`
}

func (v *PolicyViolation) CanReview() error {
	if v.Status != ViolationOpen {
		return dErrors.New(dErrors.CodeConflict, "policy violation was already reviewed").
			WithReason("VIOLATION_ALREADY_REVIEWED").
			WithDetail("status", string(v.Status))
	}
	return nil
}

func (v *PolicyViolation) ApplyReview(decision ReviewDecision, reviewer id.AdminID, note string, now time.Time) {
	if decision == DecisionApproveForRestriction {
		v.Status = ViolationApprovedForRestriction
	} else {
		v.Status = ViolationDismissed
	}
	v.ReviewedAt = &now
	v.ReviewedByAdminID = &reviewer
	v.ReviewNote = &note
}

// CanAuthorizeRestriction checks that v is an approved violation of tenantID.
func (v *PolicyViolation) CanAuthorizeRestriction(tenantID id.TenantID) error {
	if v.TenantID != tenantID {
		return dErrors.New(dErrors.CodeNotFound, "policy violation not found")
	}
	if v.Status != ViolationApprovedForRestriction {
		return dErrors.New(dErrors.CodeConflict, "policy violation must be approved for restriction").
			WithReason("VIOLATION_NOT_APPROVED").
			WithDetail("status", string(v.Status))
	}
	return nil
}
