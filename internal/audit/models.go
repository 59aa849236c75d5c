// Package audit names the platform's journaled actions and streams committed
// audit entries to external sinks.
//
// The store's audit journal is the system of record. Streaming is
// best-effort: entries are buffered in memory and dropped oldest-first when
// sinks fall behind.
package audit

import (
	"phishsim/internal/models"
	id "phishsim/pkg/domain"
)

// Action names written to AuditLog.Action.
const (
	ActionTenantSignup            = "tenant.signup"
	ActionTenantSendingModeUpdate = "tenant.default_sending_mode.update"
	ActionTenantLifecycleUpdate   = "tenant.lifecycle_mode.update"
	ActionAdminInvite             = "admin_user.invite"
	ActionTargetDomainCreate      = "target_domain.create"
	ActionTargetDomainVerifyDemo  = "target_domain.verify_demo"
	ActionSendingDomainDedicated  = "sending_domain.create_dedicated"
	ActionSendingDomainCustomer   = "sending_domain.create_customer_stub"
	ActionSendingDomainVerifyStub = "sending_domain.verify_stub"
	ActionEmployeeImportCSV       = "employee.import_csv"
	ActionCampaignCreate          = "campaign.create"
	ActionCampaignPreview         = "campaign.preview"
	ActionCampaignSchedule        = "campaign.schedule"
	ActionCampaignDispatch        = "campaign.dispatch"
	ActionPauseGlobal             = "ops.pause_global"
	ActionPauseTenant             = "ops.pause_tenant"
	ActionPauseCampaign           = "ops.pause_campaign"
	ActionViolationCreate         = "policy_violation.create"
	ActionViolationReview         = "policy_violation.review"
	ActionTenantRestrict          = "tenant.restrict"
	ActionTenantLiftRestriction   = "tenant.lift_restriction"
	ActionRiskEvaluate            = "risk.evaluate"
)

// Resource types written to AuditLog.ResourceType.
const (
	ResourceTenant        = "tenant"
	ResourceTargetDomain  = "target_domain"
	ResourceSendingDomain = "sending_domain"
	ResourceEmployee      = "employee"
	ResourceCampaign      = "campaign"
	ResourceViolation     = "policy_violation"
	ResourceSystem        = "system"
	ResourceAdmin         = "admin_user"
)

// ByAdmin builds an entry for an action taken by an authenticated admin.
func ByAdmin(tenantID id.TenantID, adminID id.AdminID, action, resourceType, resourceID string) *models.AuditLog {
	return &models.AuditLog{
		TenantID:     &tenantID,
		ActorType:    models.ActorAdmin,
		ActorID:      adminID.String(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Global builds an entry for a platform-wide action. Global entries carry no
// tenant and are visible to every tenant's audit listing.
func Global(adminID id.AdminID, action, resourceType, resourceID string) *models.AuditLog {
	return &models.AuditLog{
		ActorType:    models.ActorAdmin,
		ActorID:      adminID.String(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Reason returns a pointer to r, or nil when r is empty.
func Reason(r string) *string {
	if r == "" {
		return nil
	}
	return &r
}
