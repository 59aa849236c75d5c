package models

import dErrors "phishsim/pkg/domain-errors"

// DefaultTrainingModuleID is assigned to campaigns created without a module.
const DefaultTrainingModuleID = "spot-suspicious-urgency"

type TenantStatus string

const (
	TenantStatusActive     TenantStatus = "active"
	TenantStatusRestricted TenantStatus = "restricted"
)

type LifecycleMode string

const (
	LifecycleSandbox    LifecycleMode = "sandbox"
	LifecycleProduction LifecycleMode = "production"
)

func (m LifecycleMode) IsValid() bool {
	return m == LifecycleSandbox || m == LifecycleProduction
}

// DataClass returns the data class assigned to rosters and campaigns created
// while the tenant is in this mode.
func (m LifecycleMode) DataClass() DataClass {
	if m == LifecycleProduction {
		return DataClassReal
	}
	return DataClassDemoOnly
}

type SendingMode string

const (
	SendingModeDedicated      SendingMode = "dedicated"
	SendingModeCustomerDomain SendingMode = "customer_domain"
)

func (m SendingMode) IsValid() bool {
	return m == SendingModeDedicated || m == SendingModeCustomerDomain
}

// DataClass separates sandbox simulation data from production data.
type DataClass string

const (
	DataClassDemoOnly DataClass = "demo_only"
	DataClassReal     DataClass = "real"
)

// Badge is the label shown next to data of this class.
func (c DataClass) Badge() string {
	if c == DataClassReal {
		return "real"
	}
	return "demo-only"
}

type AdminRole string

const (
	RoleOwner AdminRole = "owner"
	RoleAdmin AdminRole = "admin"
)

type TargetDomainStatus string

const (
	TargetDomainPending      TargetDomainStatus = "pending"
	TargetDomainDemoVerified TargetDomainStatus = "demo_verified"
	TargetDomainBlocked      TargetDomainStatus = "blocked"
)

type SendingDomainStatus string

const (
	SendingDomainActive       SendingDomainStatus = "active"
	SendingDomainPending      SendingDomainStatus = "pending"
	SendingDomainStubVerified SendingDomainStatus = "stub_verified"
	SendingDomainBlocked      SendingDomainStatus = "blocked"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignPreviewed CampaignStatus = "previewed"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignPaused    CampaignStatus = "paused"
)

type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
)

type ViolationType string

const (
	ViolationHighCredentialSubmitRate ViolationType = "high_credential_submit_rate"
	ViolationLowReportRate            ViolationType = "low_report_rate"
	ViolationHighClickRate            ViolationType = "high_click_rate"
)

type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type ViolationStatus string

const (
	ViolationOpen                   ViolationStatus = "open"
	ViolationApprovedForRestriction ViolationStatus = "approved_for_restriction"
	ViolationDismissed              ViolationStatus = "dismissed"
)

func (s ViolationStatus) IsValid() bool {
	return s == ViolationOpen || s == ViolationApprovedForRestriction || s == ViolationDismissed
}

// ReviewDecision is the outcome chosen by a human reviewer.
type ReviewDecision string

const (
	DecisionApproveForRestriction ReviewDecision = "approve_for_restriction"
	DecisionDismiss               ReviewDecision = "dismiss"
)

func (d ReviewDecision) IsValid() bool {
	return d == DecisionApproveForRestriction || d == DecisionDismiss
}

type ControlScope string

const (
	ControlGlobal   ControlScope = "global"
	ControlTenant   ControlScope = "tenant"
	ControlCampaign ControlScope = "campaign"
)

type ActorType string

const (
	ActorAdmin ActorType = "admin"
)

// Scope filters data by class in reports and overviews.
type Scope string

const (
	ScopeDemo Scope = "demo"
	ScopeReal Scope = "real"
	ScopeAll  Scope = "all"
)

// ParseScope accepts demo, real or all; empty means all.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case "":
		return ScopeAll, nil
	case ScopeDemo, ScopeReal, ScopeAll:
		return Scope(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "scope must be demo, real or all").WithDetail("field", "scope")
}

func (sc Scope) Includes(dc DataClass) bool {
	switch sc {
	case ScopeDemo:
		return dc == DataClassDemoOnly
	case ScopeReal:
		return dc == DataClassReal
	default:
		return true
	}
}
