package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/ops/service"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/requestcontext"
)

type Service interface {
	SetGlobalPause(ctx context.Context, actor requestcontext.ActorInfo, paused bool, reason string) (*service.GlobalPause, error)
	SetTenantPause(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, paused bool, reason string) (*service.TenantPause, error)
}

// Handler serves the operational pause switches.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/ops/pause-global", h.HandlePauseGlobal)
	r.Post("/ops/tenants/{id}/pause", h.HandlePauseTenant)
}

// HandlePauseGlobal handles POST /ops/pause-global.
func (h *Handler) HandlePauseGlobal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[pauseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.SetGlobalPause(ctx, actor, *req.Paused, req.Reason)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "global pause failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandlePauseTenant handles POST /ops/tenants/{id}/pause.
func (h *Handler) HandlePauseTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	tid, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "tenant not found").WithReason("TENANT_NOT_FOUND"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[pauseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.SetTenantPause(ctx, actor, tid, *req.Paused, req.Reason)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "tenant pause failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
