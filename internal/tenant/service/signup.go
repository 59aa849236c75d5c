package service

import (
	"context"

	"github.com/google/uuid"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/store"
	"phishsim/internal/tenant/secrets"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/email"
	"phishsim/pkg/requestcontext"
)

type SignupInput struct {
	CompanyName        string
	AdminEmail         string
	DefaultSendingMode models.SendingMode
}

// SignupResult carries the owner's token. It is returned once and never
// stored in clear.
type SignupResult struct {
	Tenant *models.Tenant   `json:"tenant"`
	Admin  models.AdminView `json:"admin"`
	Token  string           `json:"token"`
}

// Signup creates a sandbox tenant, its owner and its dedicated sending
// domain.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	adminEmail := email.Normalize(in.AdminEmail)
	if !email.IsValid(adminEmail) {
		return nil, dErrors.New(dErrors.CodeValidation, "adminEmail must be a valid email").WithDetail("field", "adminEmail")
	}
	adminID := id.AdminID(uuid.New())
	token, hash, err := secrets.Issue(adminID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	res, err := store.Update(ctx, s.tx, func(st *store.State) (*SignupResult, error) {
		if _, taken := st.AdminByEmail(adminEmail); taken {
			return nil, dErrors.New(dErrors.CodeConflict, "admin email already registered").WithReason("ADMIN_EMAIL_TAKEN")
		}
		now := st.Now()
		slug := uniqueSlug(st, slugify(in.CompanyName))
		t, err := models.NewTenant(id.TenantID(st.NewID()), in.CompanyName, slug, in.DefaultSendingMode, now)
		if err != nil {
			return nil, invariantToValidation(err)
		}
		st.Tenants[t.ID] = t

		owner := &models.AdminUser{
			ID:        adminID,
			TenantID:  t.ID,
			Email:     adminEmail,
			Role:      models.RoleOwner,
			TokenHash: hash,
			CreatedAt: now,
		}
		st.PutAdmin(owner)

		d := &models.SendingDomain{
			ID:                 id.SendingDomainID(st.NewID()),
			TenantID:           t.ID,
			Mode:               models.SendingModeDedicated,
			Domain:             s.dedicatedDomain(slug),
			VerificationStatus: models.SendingDomainActive,
			CreatedAt:          now,
		}
		st.SendingDomains[d.ID] = d

		entry := audit.ByAdmin(t.ID, owner.ID, audit.ActionTenantSignup, audit.ResourceTenant, t.ID.String())
		entry.Metadata = map[string]any{"defaultSendingMode": string(t.DefaultSendingMode)}
		st.AppendAudit(entry)

		return &SignupResult{Tenant: t, Admin: owner.View(), Token: token}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTenantsCreated()
	s.logger.InfoContext(ctx, "tenant signed up",
		"tenant_id", res.Tenant.ID.String(),
		"slug", res.Tenant.Slug,
	)
	return res, nil
}

// ResolveActor authenticates a bearer token.
func (s *Service) ResolveActor(ctx context.Context, token string) (requestcontext.ActorInfo, error) {
	adminID, secret, err := secrets.Split(token)
	if err != nil {
		return requestcontext.ActorInfo{}, err
	}
	admin, err := store.View(ctx, s.tx, func(st *store.State) (*models.AdminUser, error) {
		a, ok := st.AdminUsers[adminID]
		if !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown token")
		}
		if _, ok := st.Tenants[a.TenantID]; !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown token")
		}
		return a, nil
	})
	if err != nil {
		return requestcontext.ActorInfo{}, err
	}
	if err := secrets.Verify(secret, admin.TokenHash); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.WarnContext(ctx, "token hash unreadable", "admin_id", admin.ID.String(), "error", err)
		}
		return requestcontext.ActorInfo{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return requestcontext.ActorInfo{
		AdminID:  admin.ID,
		TenantID: admin.TenantID,
		Role:     string(admin.Role),
		Email:    admin.Email,
	}, nil
}

type SystemView struct {
	GlobalSendPaused bool `json:"globalSendPaused"`
}

// MeResult describes the caller and their tenant.
type MeResult struct {
	Admin          models.AdminView        `json:"admin"`
	Tenant         *models.Tenant          `json:"tenant"`
	TargetDomain   *models.TargetDomain    `json:"targetDomain"`
	SendingDomains []*models.SendingDomain `json:"sendingDomains"`
	System         SystemView              `json:"system"`
}

func (s *Service) Me(ctx context.Context, actor requestcontext.ActorInfo) (*MeResult, error) {
	return store.View(ctx, s.tx, func(st *store.State) (*MeResult, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		admin, ok := st.AdminUsers[actor.AdminID]
		if !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "actor not found")
		}
		target, _ := st.TargetDomainFor(t.ID)
		return &MeResult{
			Admin:          admin.View(),
			Tenant:         t,
			TargetDomain:   target,
			SendingDomains: st.TenantSendingDomains(t.ID),
			System:         SystemView{GlobalSendPaused: st.System.GlobalSendPaused},
		}, nil
	})
}

// InviteResult carries the new admin's token, returned once.
type InviteResult struct {
	Admin models.AdminView `json:"admin"`
	Token string           `json:"token"`
}

// InviteAdmin adds a non-owner admin to the actor's tenant. Owners only.
func (s *Service) InviteAdmin(ctx context.Context, actor requestcontext.ActorInfo, address string) (*InviteResult, error) {
	if actor.Role != string(models.RoleOwner) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the tenant owner may invite admins")
	}
	address = email.Normalize(address)
	if !email.IsValid(address) {
		return nil, dErrors.New(dErrors.CodeValidation, "email must be a valid email").WithDetail("field", "email")
	}
	adminID := id.AdminID(uuid.New())
	token, hash, err := secrets.Issue(adminID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	res, err := store.Update(ctx, s.tx, func(st *store.State) (*InviteResult, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		if _, taken := st.AdminByEmail(address); taken {
			return nil, dErrors.New(dErrors.CodeConflict, "admin email already registered").WithReason("ADMIN_EMAIL_TAKEN")
		}
		a := &models.AdminUser{
			ID:        adminID,
			TenantID:  t.ID,
			Email:     address,
			Role:      models.RoleAdmin,
			TokenHash: hash,
			CreatedAt: st.Now(),
		}
		st.PutAdmin(a)
		st.AppendAudit(audit.ByAdmin(t.ID, actor.AdminID, audit.ActionAdminInvite, audit.ResourceAdmin, a.ID.String()))
		return &InviteResult{Admin: a.View(), Token: token}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin invited",
		"tenant_id", actor.TenantID.String(),
		"admin_id", res.Admin.ID.String(),
	)
	return res, nil
}
