// Package pause resolves the layered send-pause switches into one decision.
package pause

import (
	dErrors "phishsim/pkg/domain-errors"
)

// Scope names the switch that produced a blocking decision.
type Scope string

const (
	ScopeNone     Scope = ""
	ScopeGlobal   Scope = "global"
	ScopeTenant   Scope = "tenant"
	ScopeCampaign Scope = "campaign"
)

// Code is the machine-readable outcome.
type Code string

const (
	CodeNotPaused      Code = "NOT_PAUSED"
	CodeGlobalPaused   Code = "PAUSED_GLOBAL"
	CodeTenantPaused   Code = "PAUSED_TENANT"
	CodeCampaignPaused Code = "PAUSED_CAMPAIGN"
)

// State is the three independent switches.
type State struct {
	Global   bool
	Tenant   bool
	Campaign bool
}

type Decision struct {
	Blocked bool  `json:"blocked"`
	Scope   Scope `json:"scope,omitempty"`
	Code    Code  `json:"code"`
}

// Resolve applies global > tenant > campaign precedence.
func Resolve(s State) Decision {
	switch {
	case s.Global:
		return Decision{Blocked: true, Scope: ScopeGlobal, Code: CodeGlobalPaused}
	case s.Tenant:
		return Decision{Blocked: true, Scope: ScopeTenant, Code: CodeTenantPaused}
	case s.Campaign:
		return Decision{Blocked: true, Scope: ScopeCampaign, Code: CodeCampaignPaused}
	default:
		return Decision{Code: CodeNotPaused}
	}
}

// Err converts a blocking decision into a conflict carrying the code and
// scope. It returns nil when the decision does not block.
func (d Decision) Err() error {
	if !d.Blocked {
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, "sending is paused at "+string(d.Scope)+" scope").
		WithReason(string(d.Code)).
		WithDetail("scope", string(d.Scope))
}
