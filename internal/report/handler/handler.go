package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/models"
	"phishsim/internal/report/service"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/requestcontext"
)

type Service interface {
	Timeline(ctx context.Context, actor requestcontext.ActorInfo, employeeID id.EmployeeID, scope models.Scope) (*service.Timeline, error)
	History(ctx context.Context, actor requestcontext.ActorInfo, employeeID id.EmployeeID) (*service.History, error)
	AuditLogs(ctx context.Context, actor requestcontext.ActorInfo) ([]*models.AuditLog, error)
}

// Handler serves employee reports and the audit journal.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/employees/{id}/timeline", h.HandleTimeline)
	r.Get("/employees/{id}/history", h.HandleHistory)
	r.Get("/audit-logs", h.HandleAuditLogs)
}

func employeeID(r *http.Request) (id.EmployeeID, error) {
	eid, err := id.ParseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		return id.EmployeeID{}, dErrors.New(dErrors.CodeNotFound, "employee not found").WithReason("EMPLOYEE_NOT_FOUND")
	}
	return eid, nil
}

// HandleTimeline handles GET /employees/{id}/timeline?scope=demo|real|all.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	scope, err := models.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eid, err := employeeID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tl, err := h.service.Timeline(ctx, actor, eid, scope)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "employee timeline failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tl)
}

// HandleHistory handles GET /employees/{id}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	eid, err := employeeID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hist, err := h.service.History(ctx, actor, eid)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "employee history failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hist)
}

// HandleAuditLogs handles GET /audit-logs.
func (h *Handler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	logs, err := h.service.AuditLogs(ctx, actor)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "audit log listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": logs})
}
