package handler

import (
	"strings"

	"phishsim/internal/models"
	dErrors "phishsim/pkg/domain-errors"
)

type signupRequest struct {
	CompanyName        string `json:"companyName"`
	AdminEmail         string `json:"adminEmail"`
	DefaultSendingMode string `json:"defaultSendingMode"`
}

func (r *signupRequest) Normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.AdminEmail = strings.TrimSpace(r.AdminEmail)
	r.DefaultSendingMode = strings.TrimSpace(r.DefaultSendingMode)
	if r.DefaultSendingMode == "" {
		r.DefaultSendingMode = string(models.SendingModeDedicated)
	}
}

func (r *signupRequest) Validate() error {
	if len(r.CompanyName) < 2 || len(r.CompanyName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "companyName must be 2 to 200 characters").WithDetail("field", "companyName")
	}
	if r.AdminEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "adminEmail is required").WithDetail("field", "adminEmail")
	}
	if !models.SendingMode(r.DefaultSendingMode).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "defaultSendingMode must be dedicated or customer_domain").
			WithDetail("field", "defaultSendingMode")
	}
	return nil
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (r *inviteRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *inviteRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required").WithDetail("field", "email")
	}
	return nil
}

type targetDomainRequest struct {
	Domain string `json:"domain"`
}

func (r *targetDomainRequest) Normalize() {
	r.Domain = strings.TrimSpace(r.Domain)
}

func (r *targetDomainRequest) Validate() error {
	if r.Domain == "" {
		return dErrors.New(dErrors.CodeValidation, "domain is required").WithDetail("field", "domain")
	}
	return nil
}

type sendingDomainRequest struct {
	Mode   string `json:"mode"`
	Domain string `json:"domain"`
}

func (r *sendingDomainRequest) Normalize() {
	r.Mode = strings.TrimSpace(r.Mode)
	r.Domain = strings.TrimSpace(r.Domain)
}

func (r *sendingDomainRequest) Validate() error {
	mode := models.SendingMode(r.Mode)
	if !mode.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "mode must be dedicated or customer_domain").WithDetail("field", "mode")
	}
	if mode == models.SendingModeCustomerDomain && r.Domain == "" {
		return dErrors.New(dErrors.CodeValidation, "domain is required for customer_domain").WithDetail("field", "domain")
	}
	return nil
}

type sendingModeRequest struct {
	DefaultSendingMode string `json:"defaultSendingMode"`
}

func (r *sendingModeRequest) Normalize() {
	r.DefaultSendingMode = strings.TrimSpace(r.DefaultSendingMode)
}

func (r *sendingModeRequest) Validate() error {
	if !models.SendingMode(r.DefaultSendingMode).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "defaultSendingMode must be dedicated or customer_domain").
			WithDetail("field", "defaultSendingMode")
	}
	return nil
}

type lifecycleRequest struct {
	LifecycleMode string `json:"lifecycleMode"`
}

func (r *lifecycleRequest) Normalize() {
	r.LifecycleMode = strings.TrimSpace(r.LifecycleMode)
}

func (r *lifecycleRequest) Validate() error {
	if !models.LifecycleMode(r.LifecycleMode).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "lifecycleMode must be sandbox or production").
			WithDetail("field", "lifecycleMode")
	}
	return nil
}

// importRequest carries the roster as raw CSV text.
type importRequest struct {
	CSV string `json:"csv"`
}

func (r *importRequest) Normalize() {}

func (r *importRequest) Validate() error {
	if strings.TrimSpace(r.CSV) == "" {
		return dErrors.New(dErrors.CodeValidation, "csv is required").WithDetail("field", "csv")
	}
	return nil
}
