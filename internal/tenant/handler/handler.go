package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/models"
	"phishsim/internal/tenant/service"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/requestcontext"
)

// Service defines the onboarding operations used by the handler.
type Service interface {
	Signup(ctx context.Context, in service.SignupInput) (*service.SignupResult, error)
	Me(ctx context.Context, actor requestcontext.ActorInfo) (*service.MeResult, error)
	InviteAdmin(ctx context.Context, actor requestcontext.ActorInfo, address string) (*service.InviteResult, error)
	CreateTargetDomain(ctx context.Context, actor requestcontext.ActorInfo, domain string) (*models.TargetDomain, error)
	VerifyTargetDomain(ctx context.Context, actor requestcontext.ActorInfo, domainID id.TargetDomainID) (*models.TargetDomain, error)
	CreateSendingDomain(ctx context.Context, actor requestcontext.ActorInfo, mode models.SendingMode, domain string) (*models.SendingDomain, error)
	VerifySendingDomain(ctx context.Context, actor requestcontext.ActorInfo, domainID id.SendingDomainID) (*models.SendingDomain, error)
	SetDefaultSendingMode(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, mode models.SendingMode) (*models.Tenant, error)
	SetLifecycleMode(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, mode models.LifecycleMode) (*models.Tenant, error)
	ImportEmployees(ctx context.Context, actor requestcontext.ActorInfo, raw string) (*service.ImportResult, error)
	ListEmployees(ctx context.Context, actor requestcontext.ActorInfo) ([]*models.Employee, error)
}

// Handler serves signup, admin, domain, mode and roster endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated signup endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/signup-tenant", h.HandleSignup)
}

// Register mounts endpoints open to any authenticated admin.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Post("/target-domains", h.HandleCreateTargetDomain)
	r.Post("/target-domains/{id}/verify-demo", h.HandleVerifyTargetDomain)
	r.Post("/sending-domains", h.HandleCreateSendingDomain)
	r.Post("/sending-domains/{id}/verify-stub", h.HandleVerifySendingDomain)
	r.Patch("/tenants/{id}/default-sending-mode", h.HandleSetDefaultSendingMode)
	r.Patch("/tenants/{id}/lifecycle-mode", h.HandleSetLifecycleMode)
	r.Post("/employees/import-csv", h.HandleImportEmployees)
	r.Get("/employees", h.HandleListEmployees)
}

// RegisterOwner mounts owner-only endpoints. The router must apply RequireRole.
func (h *Handler) RegisterOwner(r chi.Router) {
	r.Post("/admin-users", h.HandleInviteAdmin)
}

func tenantID(r *http.Request) (id.TenantID, error) {
	tid, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		return id.TenantID{}, dErrors.New(dErrors.CodeNotFound, "tenant not found").WithReason("TENANT_NOT_FOUND")
	}
	return tid, nil
}

// HandleSignup handles POST /auth/signup-tenant.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[signupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Signup(ctx, service.SignupInput{
		CompanyName:        req.CompanyName,
		AdminEmail:         req.AdminEmail,
		DefaultSendingMode: models.SendingMode(req.DefaultSendingMode),
	})
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "tenant signup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleMe handles GET /me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	res, err := h.service.Me(ctx, actor)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "me lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleInviteAdmin handles POST /admin-users.
func (h *Handler) HandleInviteAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[inviteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.InviteAdmin(ctx, actor, req.Email)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "admin invite failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleCreateTargetDomain handles POST /target-domains.
func (h *Handler) HandleCreateTargetDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[targetDomainRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	d, err := h.service.CreateTargetDomain(ctx, actor, req.Domain)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "target domain create failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

// HandleVerifyTargetDomain handles POST /target-domains/{id}/verify-demo.
func (h *Handler) HandleVerifyTargetDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	did, err := id.ParseTargetDomainID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "target domain not found").WithReason("TARGET_DOMAIN_NOT_FOUND"))
		return
	}
	d, err := h.service.VerifyTargetDomain(ctx, actor, did)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "target domain verify failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleCreateSendingDomain handles POST /sending-domains.
func (h *Handler) HandleCreateSendingDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[sendingDomainRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	d, err := h.service.CreateSendingDomain(ctx, actor, models.SendingMode(req.Mode), req.Domain)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "sending domain create failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

// HandleVerifySendingDomain handles POST /sending-domains/{id}/verify-stub.
func (h *Handler) HandleVerifySendingDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	did, err := id.ParseSendingDomainID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "sending domain not found").WithReason("SENDING_DOMAIN_NOT_FOUND"))
		return
	}
	d, err := h.service.VerifySendingDomain(ctx, actor, did)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "sending domain verify failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleSetDefaultSendingMode handles PATCH /tenants/{id}/default-sending-mode.
func (h *Handler) HandleSetDefaultSendingMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	tid, err := tenantID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[sendingModeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.service.SetDefaultSendingMode(ctx, actor, tid, models.SendingMode(req.DefaultSendingMode))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "default sending mode update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleSetLifecycleMode handles PATCH /tenants/{id}/lifecycle-mode.
func (h *Handler) HandleSetLifecycleMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	tid, err := tenantID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[lifecycleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	t, err := h.service.SetLifecycleMode(ctx, actor, tid, models.LifecycleMode(req.LifecycleMode))
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "lifecycle mode update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleImportEmployees handles POST /employees/import-csv.
func (h *Handler) HandleImportEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[importRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.ImportEmployees(ctx, actor, req.CSV)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "employee import failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleListEmployees handles GET /employees.
func (h *Handler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListEmployees(ctx, actor)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "employee list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"employees": list})
}
