package service

import (
	"context"
	"regexp"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

func validDomain(field, raw string) (string, error) {
	d := normalizeDomain(raw)
	if len(d) < 3 || len(d) > 253 || !domainPattern.MatchString(d) {
		return "", dErrors.New(dErrors.CodeValidation, field+" must be a valid domain").WithDetail("field", field)
	}
	return d, nil
}

// CreateTargetDomain registers the tenant's single employee mail domain.
func (s *Service) CreateTargetDomain(ctx context.Context, actor requestcontext.ActorInfo, domain string) (*models.TargetDomain, error) {
	domain, err := validDomain("domain", domain)
	if err != nil {
		return nil, err
	}
	return store.Update(ctx, s.tx, func(st *store.State) (*models.TargetDomain, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		if _, exists := st.TargetDomainFor(t.ID); exists {
			return nil, dErrors.New(dErrors.CodeConflict, "each tenant can only have one target domain").
				WithReason("TARGET_DOMAIN_EXISTS")
		}
		d := &models.TargetDomain{
			ID:                 id.TargetDomainID(st.NewID()),
			TenantID:           t.ID,
			Domain:             domain,
			VerificationStatus: models.TargetDomainPending,
			CreatedAt:          st.Now(),
		}
		st.TargetDomains[d.ID] = d

		entry := audit.ByAdmin(t.ID, actor.AdminID, audit.ActionTargetDomainCreate, audit.ResourceTargetDomain, d.ID.String())
		entry.Metadata = map[string]any{"domain": d.Domain}
		st.AppendAudit(entry)
		return d, nil
	})
}

// VerifyTargetDomain marks the target domain demo_verified. There is no real
// ownership check behind it.
func (s *Service) VerifyTargetDomain(ctx context.Context, actor requestcontext.ActorInfo, domainID id.TargetDomainID) (*models.TargetDomain, error) {
	return store.Update(ctx, s.tx, func(st *store.State) (*models.TargetDomain, error) {
		d, ok := st.TargetDomains[domainID]
		if !ok || d.TenantID != actor.TenantID {
			return nil, dErrors.New(dErrors.CodeNotFound, "target domain not found").WithReason("TARGET_DOMAIN_NOT_FOUND")
		}
		d.ApplyDemoVerification(st.Now())

		entry := audit.ByAdmin(d.TenantID, actor.AdminID, audit.ActionTargetDomainVerifyDemo, audit.ResourceTargetDomain, d.ID.String())
		entry.Reason = audit.Reason("demo_verification")
		st.AppendAudit(entry)
		return d, nil
	})
}

// CreateSendingDomain returns the tenant's dedicated domain, creating it if
// needed, or registers a customer domain. Both paths are idempotent.
func (s *Service) CreateSendingDomain(ctx context.Context, actor requestcontext.ActorInfo, mode models.SendingMode, domain string) (*models.SendingDomain, error) {
	if !mode.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "mode must be dedicated or customer_domain").WithDetail("field", "mode")
	}
	if mode == models.SendingModeCustomerDomain {
		var err error
		if domain, err = validDomain("domain", domain); err != nil {
			return nil, err
		}
	}

	return store.Update(ctx, s.tx, func(st *store.State) (*models.SendingDomain, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		for _, d := range st.TenantSendingDomains(t.ID) {
			if d.Mode != mode {
				continue
			}
			if mode == models.SendingModeDedicated || d.Domain == domain {
				return d, nil
			}
		}

		d := &models.SendingDomain{
			ID:        id.SendingDomainID(st.NewID()),
			TenantID:  t.ID,
			Mode:      mode,
			CreatedAt: st.Now(),
		}
		action := audit.ActionSendingDomainCustomer
		if mode == models.SendingModeDedicated {
			d.Domain = s.dedicatedDomain(t.Slug)
			d.VerificationStatus = models.SendingDomainActive
			action = audit.ActionSendingDomainDedicated
		} else {
			d.Domain = domain
			d.VerificationStatus = models.SendingDomainPending
		}
		st.SendingDomains[d.ID] = d

		entry := audit.ByAdmin(t.ID, actor.AdminID, action, audit.ResourceSendingDomain, d.ID.String())
		entry.Metadata = map[string]any{"domain": d.Domain}
		st.AppendAudit(entry)
		return d, nil
	})
}

// VerifySendingDomain stub-verifies a customer sending domain.
func (s *Service) VerifySendingDomain(ctx context.Context, actor requestcontext.ActorInfo, domainID id.SendingDomainID) (*models.SendingDomain, error) {
	return store.Update(ctx, s.tx, func(st *store.State) (*models.SendingDomain, error) {
		d, ok := st.SendingDomains[domainID]
		if !ok || d.TenantID != actor.TenantID {
			return nil, dErrors.New(dErrors.CodeNotFound, "sending domain not found").WithReason("SENDING_DOMAIN_NOT_FOUND")
		}
		if err := d.CanVerifyStub(); err != nil {
			return nil, err
		}
		d.ApplyStubVerification()

		entry := audit.ByAdmin(d.TenantID, actor.AdminID, audit.ActionSendingDomainVerifyStub, audit.ResourceSendingDomain, d.ID.String())
		entry.Reason = audit.Reason("stub_verification")
		st.AppendAudit(entry)
		return d, nil
	})
}

// SetDefaultSendingMode changes the tenant default. customer_domain requires
// a stub_verified customer sending domain.
func (s *Service) SetDefaultSendingMode(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, mode models.SendingMode) (*models.Tenant, error) {
	if err := ownTenant(actor, tenantID); err != nil {
		return nil, err
	}
	if !mode.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "defaultSendingMode must be dedicated or customer_domain").
			WithDetail("field", "defaultSendingMode")
	}
	return store.Update(ctx, s.tx, func(st *store.State) (*models.Tenant, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		if mode == models.SendingModeCustomerDomain && !hasVerifiedCustomerDomain(st, t.ID) {
			return nil, dErrors.New(dErrors.CodeValidation, "customer_domain requires a stub_verified customer sending domain").
				WithReason("CUSTOMER_DOMAIN_NOT_VERIFIED")
		}
		t.DefaultSendingMode = mode
		t.UpdatedAt = st.Now()

		entry := audit.ByAdmin(t.ID, actor.AdminID, audit.ActionTenantSendingModeUpdate, audit.ResourceTenant, t.ID.String())
		entry.Metadata = map[string]any{"defaultSendingMode": string(mode)}
		st.AppendAudit(entry)
		return t, nil
	})
}

func hasVerifiedCustomerDomain(st *store.State, tenantID id.TenantID) bool {
	for _, d := range st.TenantSendingDomains(tenantID) {
		if d.Mode == models.SendingModeCustomerDomain && d.VerificationStatus == models.SendingDomainStubVerified {
			return true
		}
	}
	return false
}

// SetLifecycleMode switches between sandbox and production. Production needs
// a demo_verified target domain. Existing rows keep their data class.
func (s *Service) SetLifecycleMode(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, mode models.LifecycleMode) (*models.Tenant, error) {
	if err := ownTenant(actor, tenantID); err != nil {
		return nil, err
	}
	if !mode.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "lifecycleMode must be sandbox or production").
			WithDetail("field", "lifecycleMode")
	}
	return store.Update(ctx, s.tx, func(st *store.State) (*models.Tenant, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		if mode == models.LifecycleProduction {
			target, ok := st.TargetDomainFor(t.ID)
			if !ok || target.VerificationStatus != models.TargetDomainDemoVerified {
				return nil, dErrors.New(dErrors.CodeConflict, "production mode requires a demo_verified target domain").
					WithReason("TARGET_DOMAIN_NOT_VERIFIED")
			}
		}
		previous := t.LifecycleMode
		t.LifecycleMode = mode
		t.UpdatedAt = st.Now()

		entry := audit.ByAdmin(t.ID, actor.AdminID, audit.ActionTenantLifecycleUpdate, audit.ResourceTenant, t.ID.String())
		entry.Metadata = map[string]any{"from": string(previous), "to": string(mode)}
		st.AppendAudit(entry)
		return t, nil
	})
}
