package handler

import (
	"strings"

	"phishsim/internal/models"
	dErrors "phishsim/pkg/domain-errors"
)

type evaluateRequest struct {
	Note string `json:"note"`
}

func (r *evaluateRequest) Normalize() {
	r.Note = strings.TrimSpace(r.Note)
}

func (r *evaluateRequest) Validate() error {
	if len(r.Note) > 250 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 250 characters").WithDetail("field", "note")
	}
	return nil
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (r *reviewRequest) Normalize() {
	r.Decision = strings.TrimSpace(r.Decision)
	r.Note = strings.TrimSpace(r.Note)
}

func (r *reviewRequest) Validate() error {
	if !models.ReviewDecision(r.Decision).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "decision must be approve_for_restriction or dismiss").WithDetail("field", "decision")
	}
	if len(r.Note) < 3 || len(r.Note) > 250 {
		return dErrors.New(dErrors.CodeValidation, "note must be 3 to 250 characters").WithDetail("field", "note")
	}
	return nil
}

type restrictRequest struct {
	Restricted        *bool  `json:"restricted"`
	Reason            string `json:"reason"`
	PolicyViolationID string `json:"policyViolationId"`
}

func (r *restrictRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
	r.PolicyViolationID = strings.TrimSpace(r.PolicyViolationID)
}

func (r *restrictRequest) Validate() error {
	if r.Restricted == nil {
		return dErrors.New(dErrors.CodeValidation, "restricted is required").WithDetail("field", "restricted")
	}
	if len(r.Reason) < 3 || len(r.Reason) > 250 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 3 to 250 characters").WithDetail("field", "reason")
	}
	if *r.Restricted && r.PolicyViolationID == "" {
		return dErrors.New(dErrors.CodeValidation, "policyViolationId is required to restrict a tenant").WithDetail("field", "policyViolationId")
	}
	return nil
}
