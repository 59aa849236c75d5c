package service

import (
	"context"
	"slices"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

// ListViolations returns the tenant's violations oldest first, optionally
// limited to the given statuses.
func (s *Service) ListViolations(ctx context.Context, actor requestcontext.ActorInfo, statuses []models.ViolationStatus) ([]*models.PolicyViolation, error) {
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown violation status").WithDetail("status", string(st))
		}
	}
	return store.View(ctx, s.tx, func(st *store.State) ([]*models.PolicyViolation, error) {
		out := []*models.PolicyViolation{}
		for _, v := range st.TenantViolations(actor.TenantID) {
			if len(statuses) == 0 || slices.Contains(statuses, v.Status) {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

// Review resolves an open violation. The transition is one-way: a reviewed
// violation can never be reviewed again.
func (s *Service) Review(ctx context.Context, actor requestcontext.ActorInfo, violationID id.ViolationID, decision models.ReviewDecision, note string) (*models.PolicyViolation, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	if !decision.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be approve_for_restriction or dismiss").WithDetail("field", "decision")
	}

	v, err := store.Update(ctx, s.tx, func(st *store.State) (*models.PolicyViolation, error) {
		v, ok := st.Violations[violationID]
		if !ok || v.TenantID != actor.TenantID {
			return nil, violationNotFound()
		}
		if err := v.CanReview(); err != nil {
			return nil, err
		}
		v.ApplyReview(decision, actor.AdminID, note, st.Now())

		entry := audit.ByAdmin(v.TenantID, actor.AdminID, audit.ActionViolationReview, audit.ResourceViolation, v.ID.String())
		entry.Reason = audit.Reason(note)
		entry.Metadata = map[string]any{"decision": string(decision), "status": string(v.Status)}
		st.AppendAudit(entry)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "policy violation reviewed",
		"tenant_id", v.TenantID.String(),
		"violation_id", v.ID.String(),
		"decision", string(decision),
	)
	return v, nil
}

// RestrictionInput is a restrict or lift request. ViolationID is required to
// restrict and ignored when lifting.
type RestrictionInput struct {
	Restricted  bool
	Reason      string
	ViolationID *id.ViolationID
}

// SetRestriction restricts or lifts the actor's own tenant. Restricting
// requires a violation of that tenant approved for restriction; this is the
// only path to a restricted tenant.
func (s *Service) SetRestriction(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, in RestrictionInput) (*models.Tenant, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	if tenantID != actor.TenantID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot change another tenant")
	}
	if in.Restricted && in.ViolationID == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "policyViolationId is required to restrict a tenant").
			WithDetail("field", "policyViolationId")
	}

	t, err := store.Update(ctx, s.tx, func(st *store.State) (*models.Tenant, error) {
		t, ok := st.Tenants[tenantID]
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
		}

		action := audit.ActionTenantLiftRestriction
		metadata := map[string]any{"restricted": in.Restricted}
		if in.Restricted {
			if err := t.CanRestrict(); err != nil {
				return nil, err
			}
			v, ok := st.Violations[*in.ViolationID]
			if !ok {
				return nil, violationNotFound()
			}
			if err := v.CanAuthorizeRestriction(t.ID); err != nil {
				return nil, err
			}
			t.ApplyRestriction(v.ID, st.Now())
			action = audit.ActionTenantRestrict
			metadata["policyViolationId"] = v.ID.String()
		} else {
			if err := t.CanLiftRestriction(); err != nil {
				return nil, err
			}
			t.ApplyLiftRestriction(st.Now())
		}

		scopeID := t.ID.String()
		st.AppendControl(&models.OperationalControl{
			Scope:        models.ControlTenant,
			ScopeID:      &scopeID,
			Paused:       t.SendPaused,
			Reason:       in.Reason,
			SetByAdminID: actor.AdminID,
		})
		entry := audit.ByAdmin(t.ID, actor.AdminID, action, audit.ResourceTenant, t.ID.String())
		entry.Reason = audit.Reason(in.Reason)
		entry.Metadata = metadata
		st.AppendAudit(entry)
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	change := "lift"
	if in.Restricted {
		change = "restrict"
	}
	s.metrics.IncrementRestrictionChange(change)
	s.logger.InfoContext(ctx, "tenant restriction changed",
		"tenant_id", t.ID.String(),
		"status", string(t.Status),
		"admin_id", actor.AdminID.String(),
	)
	return t, nil
}
