package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/models"
	"phishsim/internal/risk/service"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	platformstrings "phishsim/pkg/platform/strings"
	"phishsim/pkg/requestcontext"
)

// Service defines the risk operations used by the handler.
type Service interface {
	CampaignRisk(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) (*service.CampaignRisk, error)
	EvaluateCampaign(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, note string) (*service.Evaluation, error)
	TenantOverview(ctx context.Context, actor requestcontext.ActorInfo, scope models.Scope) (*service.Overview, error)
	ListViolations(ctx context.Context, actor requestcontext.ActorInfo, statuses []models.ViolationStatus) ([]*models.PolicyViolation, error)
	Review(ctx context.Context, actor requestcontext.ActorInfo, violationID id.ViolationID, decision models.ReviewDecision, note string) (*models.PolicyViolation, error)
	SetRestriction(ctx context.Context, actor requestcontext.ActorInfo, tenantID id.TenantID, in service.RestrictionInput) (*models.Tenant, error)
}

// Handler serves risk scoring, violation review and tenant restriction.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts endpoints open to any tenant admin.
func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns/{id}/risk", h.HandleCampaignRisk)
	r.Post("/campaigns/{id}/risk/evaluate", h.HandleEvaluate)
	r.Get("/risk/overview", h.HandleOverview)
	r.Get("/policy-violations", h.HandleListViolations)
}

// RegisterOwner mounts the enforcement endpoints. The router must restrict
// them to owners.
func (h *Handler) RegisterOwner(r chi.Router) {
	r.Post("/policy-violations/{id}/review", h.HandleReview)
	r.Post("/tenants/{id}/restrict", h.HandleRestrict)
}

func campaignID(r *http.Request) (id.CampaignID, error) {
	cid, err := id.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		return id.CampaignID{}, dErrors.New(dErrors.CodeNotFound, "campaign not found").WithReason("CAMPAIGN_NOT_FOUND")
	}
	return cid, nil
}

// HandleCampaignRisk handles GET /campaigns/{id}/risk.
func (h *Handler) HandleCampaignRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	cid, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.CampaignRisk(ctx, actor, cid)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign risk failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleEvaluate handles POST /campaigns/{id}/risk/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	cid, err := campaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[evaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.EvaluateCampaign(ctx, actor, cid, req.Note)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "risk evaluation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleOverview handles GET /risk/overview?scope=demo|real|all.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.service.TenantOverview(ctx, actor, scope)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "risk overview failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleListViolations handles GET /policy-violations?status=open,dismissed.
func (h *Handler) HandleListViolations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	var statuses []models.ViolationStatus
	for _, s := range platformstrings.ParseList(r.URL.Query().Get("status")) {
		statuses = append(statuses, models.ViolationStatus(s))
	}
	list, err := h.service.ListViolations(ctx, actor, statuses)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "list policy violations failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"violations": list})
}

// HandleReview handles POST /policy-violations/{id}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	vid, err := id.ParseViolationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "policy violation not found").WithReason("VIOLATION_NOT_FOUND"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.service.Review(ctx, actor, vid, models.ReviewDecision(req.Decision), req.Note)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "policy violation review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

// HandleRestrict handles POST /tenants/{id}/restrict.
func (h *Handler) HandleRestrict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "cannot change another tenant"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[restrictRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	in := service.RestrictionInput{Restricted: *req.Restricted, Reason: req.Reason}
	if *req.Restricted {
		vid, err := id.ParseViolationID(req.PolicyViolationID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "policy violation not found").WithReason("VIOLATION_NOT_FOUND"))
			return
		}
		in.ViolationID = &vid
	}

	t, err := h.service.SetRestriction(ctx, actor, tenantID, in)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "tenant restriction failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}
