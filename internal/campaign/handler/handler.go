package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/campaign/service"
	"phishsim/internal/models"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/requestcontext"
)

// Service defines the campaign operations used by the handler.
type Service interface {
	Create(ctx context.Context, actor requestcontext.ActorInfo, in service.CreateInput) (*models.Campaign, error)
	List(ctx context.Context, actor requestcontext.ActorInfo) ([]service.CampaignSummary, error)
	Preview(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) (*service.PreviewResult, error)
	Schedule(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, at time.Time) (*models.Campaign, error)
	Dispatch(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, force bool) (*service.DispatchResult, error)
	Recipients(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) ([]*models.CampaignRecipient, error)
	SetPaused(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, paused bool, reason string) (*models.Campaign, error)
	TrainingPreview(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID) (*service.TrainingPreviewResult, error)
}

// Handler serves the campaign lifecycle endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts campaign endpoints. The router must apply RequireActor.
func (h *Handler) Register(r chi.Router) {
	r.Post("/campaigns", h.HandleCreate)
	r.Get("/campaigns", h.HandleList)
	r.Post("/campaigns/{id}/preview", h.HandlePreview)
	r.Post("/campaigns/{id}/schedule", h.HandleSchedule)
	r.Post("/campaigns/{id}/dispatch", h.HandleDispatch)
	r.Post("/campaigns/{id}/pause", h.HandlePause)
	r.Get("/campaigns/{id}/recipients", h.HandleRecipients)
	r.Get("/campaigns/{id}/training-preview", h.HandleTrainingPreview)
}

func campaignID(r *http.Request) (id.CampaignID, error) {
	cid, err := id.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		return id.CampaignID{}, dErrors.New(dErrors.CodeNotFound, "campaign not found").WithReason("CAMPAIGN_NOT_FOUND")
	}
	return cid, nil
}

// HandleCreate handles POST /campaigns.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	domainID, err := id.ParseSendingDomainID(req.SendingDomainID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "sending domain not found").WithReason("SENDING_DOMAIN_NOT_FOUND"))
		return
	}

	c, err := h.service.Create(ctx, actor, service.CreateInput{
		Name:             req.Name,
		TemplateName:     req.TemplateName,
		SendingMode:      models.SendingMode(req.SendingMode),
		SendingDomainID:  domainID,
		TrainingModuleID: req.TrainingModuleID,
	})
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign create failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleList handles GET /campaigns.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := httputil.RequireActor(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(ctx, actor)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"campaigns": list})
}

// HandlePreview handles POST /campaigns/{id}/preview.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.service.Preview(ctx, actor, cid)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign preview failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleSchedule handles POST /campaigns/{id}/schedule.
func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.DecodeAndPrepare[scheduleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Schedule(ctx, actor, cid, *req.ScheduledAt)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign schedule failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleDispatch handles POST /campaigns/{id}/dispatch. The body is optional.
func (h *Handler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.DecodeAndPrepare[dispatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Dispatch(ctx, actor, cid, req.Force)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign dispatch failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandlePause handles POST /campaigns/{id}/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.DecodeAndPrepare[pauseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.SetPaused(ctx, actor, cid, *req.Paused, req.Reason)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign pause failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleRecipients handles GET /campaigns/{id}/recipients.
func (h *Handler) HandleRecipients(w http.ResponseWriter, r *http.Request) {
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
	recipients, err := h.service.Recipients(ctx, actor, cid)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "campaign recipients failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"recipients": recipients})
}

// HandleTrainingPreview handles GET /campaigns/{id}/training-preview.
func (h *Handler) HandleTrainingPreview(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.service.TrainingPreview(ctx, actor, cid)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "training preview failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
