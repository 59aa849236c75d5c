package handler

import (
	"strings"
	"time"

	"phishsim/internal/models"
	dErrors "phishsim/pkg/domain-errors"
)

type createRequest struct {
	Name             string `json:"name"`
	TemplateName     string `json:"templateName"`
	SendingMode      string `json:"sendingMode"`
	SendingDomainID  string `json:"sendingDomainId"`
	TrainingModuleID string `json:"trainingModuleId"`
}

func (r *createRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.TemplateName = strings.TrimSpace(r.TemplateName)
	r.SendingMode = strings.TrimSpace(r.SendingMode)
	r.SendingDomainID = strings.TrimSpace(r.SendingDomainID)
	r.TrainingModuleID = strings.TrimSpace(r.TrainingModuleID)
}

func (r *createRequest) Validate() error {
	if len(r.Name) < 2 || len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be 2 to 200 characters").WithDetail("field", "name")
	}
	if len(r.TemplateName) < 2 || len(r.TemplateName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "templateName must be 2 to 200 characters").WithDetail("field", "templateName")
	}
	if !models.SendingMode(r.SendingMode).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "sendingMode must be dedicated or customer_domain").WithDetail("field", "sendingMode")
	}
	if r.SendingDomainID == "" {
		return dErrors.New(dErrors.CodeValidation, "sendingDomainId is required").WithDetail("field", "sendingDomainId")
	}
	return nil
}

type scheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
}

func (r *scheduleRequest) Normalize() {}

func (r *scheduleRequest) Validate() error {
	if r.ScheduledAt == nil {
		return dErrors.New(dErrors.CodeValidation, "scheduledAt is required").WithDetail("field", "scheduledAt")
	}
	return nil
}

type dispatchRequest struct {
	Force bool `json:"force"`
}

func (r *dispatchRequest) Normalize() {}

func (r *dispatchRequest) Validate() error { return nil }

type pauseRequest struct {
	Paused *bool  `json:"paused"`
	Reason string `json:"reason"`
}

func (r *pauseRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *pauseRequest) Validate() error {
	if r.Paused == nil {
		return dErrors.New(dErrors.CodeValidation, "paused is required").WithDetail("field", "paused")
	}
	if len(r.Reason) < 3 || len(r.Reason) > 250 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 3 to 250 characters").WithDetail("field", "reason")
	}
	return nil
}
