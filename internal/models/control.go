package models

import (
	"time"

	id "phishsim/pkg/domain"
)

// OperationalControl journals every pause, unpause, restriction and lift.
type OperationalControl struct {
	ID           id.ControlID `json:"id"`
	Scope        ControlScope `json:"scope"`
	ScopeID      *string      `json:"scopeId"`
	Paused       bool         `json:"paused"`
	Reason       string       `json:"reason"`
	SetByAdminID id.AdminID   `json:"setByAdminId"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// AuditLog is the system-wide action journal. TenantID is nil for global actions.
type AuditLog struct {
	ID           id.AuditLogID  `json:"id"`
	TenantID     *id.TenantID   `json:"tenantId"`
	ActorType    ActorType      `json:"actorType"`
	ActorID      string         `json:"actorId"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Reason       *string        `json:"reason"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// SystemState holds platform-wide switches.
type SystemState struct {
	GlobalSendPaused bool `json:"globalSendPaused"`
}
