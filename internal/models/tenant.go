package models

import (
	"time"

	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

// Tenant is the aggregate root for a customer organization.
//
// Invariants:
//   - Status is restricted only through ApplyRestriction, which requires an
//     approved policy violation id
//   - A restricted tenant always has SendPaused set
//   - Lifting clears both the restriction and SendPaused
type Tenant struct {
	ID                     id.TenantID     `json:"id"`
	Name                   string          `json:"name"`
	Slug                   string          `json:"slug"`
	Status                 TenantStatus    `json:"status"`
	LifecycleMode          LifecycleMode   `json:"lifecycleMode"`
	DefaultSendingMode     SendingMode     `json:"defaultSendingMode"`
	SendPaused             bool            `json:"sendPaused"`
	RestrictedAt           *time.Time      `json:"restrictedAt,omitempty"`
	RestrictionViolationID *id.ViolationID `json:"restrictionViolationId,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

func NewTenant(tenantID id.TenantID, name, slug string, mode SendingMode, now time.Time) (*Tenant, error) {
	if len(name) < 2 || len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company name must be 2 to 128 characters")
	}
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant slug cannot be empty")
	}
	if !mode.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown sending mode")
	}
	return &Tenant{
		ID:                 tenantID,
		Name:               name,
		Slug:               slug,
		Status:             TenantStatusActive,
		LifecycleMode:      LifecycleSandbox,
		DefaultSendingMode: mode,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (t *Tenant) IsRestricted() bool {
	return t.Status == TenantStatusRestricted
}

// CanRestrict checks the tenant-side half of the enforcement gate; the
// violation must be checked separately.
func (t *Tenant) CanRestrict() error {
	if t.IsRestricted() {
		return dErrors.New(dErrors.CodeConflict, "tenant is already restricted").WithReason("TENANT_ALREADY_RESTRICTED")
	}
	return nil
}

func (t *Tenant) ApplyRestriction(violationID id.ViolationID, now time.Time) {
	t.Status = TenantStatusRestricted
	t.SendPaused = true
	t.RestrictedAt = &now
	t.RestrictionViolationID = &violationID
	t.UpdatedAt = now
}

func (t *Tenant) CanLiftRestriction() error {
	if !t.IsRestricted() {
		return dErrors.New(dErrors.CodeConflict, "tenant is not restricted").WithReason("TENANT_NOT_RESTRICTED")
	}
	return nil
}

func (t *Tenant) ApplyLiftRestriction(now time.Time) {
	t.Status = TenantStatusActive
	t.SendPaused = false
	t.RestrictedAt = nil
	t.RestrictionViolationID = nil
	t.UpdatedAt = now
}

// CanSetSendPaused rejects unpausing while restricted: only lifting the
// restriction may release a restricted tenant.
func (t *Tenant) CanSetSendPaused(paused bool) error {
	if !paused && t.IsRestricted() {
		return RestrictedError()
	}
	return nil
}

func (t *Tenant) ApplySendPaused(paused bool, now time.Time) {
	t.SendPaused = paused
	t.UpdatedAt = now
}

// RestrictedError is returned for any send-affecting action on a restricted tenant.
func RestrictedError() error {
	return dErrors.New(dErrors.CodeLocked, "tenant is restricted pending enforcement review").WithReason("TENANT_RESTRICTED")
}

// AdminUser is a tenant operator. Only a bcrypt hash of the token secret is kept.
type AdminUser struct {
	ID        id.AdminID  `json:"id"`
	TenantID  id.TenantID `json:"tenantId"`
	Email     string      `json:"email"`
	Role      AdminRole   `json:"role"`
	TokenHash []byte      `json:"tokenHash,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AdminView is the public projection of an admin.
type AdminView struct {
	ID    id.AdminID `json:"id"`
	Email string     `json:"email"`
	Role  AdminRole  `json:"role"`
}

func (a *AdminUser) View() AdminView {
	return AdminView{ID: a.ID, Email: a.Email, Role: a.Role}
}

// TargetDomain is the employee mail domain a tenant simulates against.
type TargetDomain struct {
	ID                 id.TargetDomainID  `json:"id"`
	TenantID           id.TenantID        `json:"tenantId"`
	Domain             string             `json:"domain"`
	VerificationStatus TargetDomainStatus `json:"verificationStatus"`
	VerifiedAt         *time.Time         `json:"verifiedAt"`
	CreatedAt          time.Time          `json:"createdAt"`
}

func (d *TargetDomain) ApplyDemoVerification(now time.Time) {
	d.VerificationStatus = TargetDomainDemoVerified
	d.VerifiedAt = &now
}

// SendingDomain is the domain simulation emails are sent from.
type SendingDomain struct {
	ID                 id.SendingDomainID  `json:"id"`
	TenantID           id.TenantID         `json:"tenantId"`
	Mode               SendingMode         `json:"mode"`
	Domain             string              `json:"domain"`
	VerificationStatus SendingDomainStatus `json:"verificationStatus"`
	ProviderIdentityID *string             `json:"providerIdentityId"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// CanSendFor reports whether campaigns in mode may send from this domain.
// Customer domains must reach stub_verified first.
func (d *SendingDomain) CanSendFor(mode SendingMode) error {
	if mode == SendingModeCustomerDomain && d.VerificationStatus != SendingDomainStubVerified {
		return dErrors.New(dErrors.CodeConflict, "customer sending domain must be stub_verified").
			WithReason("CUSTOMER_DOMAIN_NOT_VERIFIED")
	}
	return nil
}

func (d *SendingDomain) CanVerifyStub() error {
	if d.Mode != SendingModeCustomerDomain {
		return dErrors.New(dErrors.CodeNotFound, "sending domain not found")
	}
	return nil
}

func (d *SendingDomain) ApplyStubVerification() {
	d.VerificationStatus = SendingDomainStubVerified
}
