// Package service owns the platform and tenant send switches. Each change is
// journaled as an OperationalControl and an audit entry in the same write.
package service

import (
	"context"
	"log/slog"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

// globalSendResource is the resource id of the platform-wide switch.
const globalSendResource = "global_send"

type Service struct {
	tx     store.Transactor
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(tx store.Transactor, opts ...Option) *Service {
	s := &Service{tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type GlobalPause struct {
	GlobalSendPaused bool `json:"globalSendPaused"`
}

type TenantPause struct {
	TenantID   id.TenantID `json:"tenantId"`
	SendPaused bool        `json:"sendPaused"`
}

// SetGlobalPause flips the platform-wide send switch. It halts dispatch for
// every tenant; ingestion and training are unaffected.
func (s *Service) SetGlobalPause(ctx context.Context, actor requestcontext.ActorInfo, paused bool, reason string) (*GlobalPause, error) {
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*GlobalPause, error) {
		st.System.GlobalSendPaused = paused
		st.AppendControl(&models.OperationalControl{
			Scope:        models.ControlGlobal,
			Paused:       paused,
			Reason:       reason,
			SetByAdminID: actor.AdminID,
		})
		entry := audit.Global(actor.AdminID, audit.ActionPauseGlobal, audit.ResourceSystem, globalSendResource)
		entry.Reason = audit.Reason(reason)
		entry.Metadata = map[string]any{"paused": paused}
		st.AppendAudit(entry)
		return &GlobalPause{GlobalSendPaused: paused}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WarnContext(ctx, "global send pause changed",
		"paused", paused,
		"admin_id", actor.AdminID.String(),
		"tenant_id", actor.TenantID.String(),
	)
	return res, nil
}

// SetTenantPause flips the actor's own tenant switch. A restricted tenant
// cannot be unpaused here; only lifting the restriction releases it.
func (s *Service) SetTenantPause(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, paused bool, reason string) (*TenantPause, error) {
	if tenantID != actor.TenantID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot pause another tenant")
	}
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*TenantPause, error) {
		t, ok := st.Tenants[tenantID]
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found").WithReason("TENANT_NOT_FOUND")
		}
		if err := t.CanSetSendPaused(paused); err != nil {
			return nil, err
		}
		t.ApplySendPaused(paused, st.Now())

		scopeID := t.ID.String()
		st.AppendControl(&models.OperationalControl{
			Scope:        models.ControlTenant,
			ScopeID:      &scopeID,
			Paused:       paused,
			Reason:       reason,
			SetByAdminID: actor.AdminID,
		})
		entry := audit.ByAdmin(t.ID, actor.AdminID, audit.ActionPauseTenant, audit.ResourceTenant, t.ID.String())
		entry.Reason = audit.Reason(reason)
		entry.Metadata = map[string]any{"paused": paused}
		st.AppendAudit(entry)
		return &TenantPause{TenantID: t.ID, SendPaused: t.SendPaused}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tenant send pause changed",
		"tenant_id", tenantID.String(),
		"paused", paused,
	)
	return res, nil
}
