package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/platform/metrics"
	"phishsim/internal/tracking/service"
	"phishsim/internal/transport/http/schema"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/requestcontext"
)

// Service defines the ingestion operations used by the handler.
type Service interface {
	IngestWebhookBatch(ctx context.Context, events []service.WebhookEvent) (service.BatchSummary, error)
	Click(ctx context.Context, token, userAgent string) (*service.ClickResult, error)
	ReportPhish(ctx context.Context, token string) (*service.ReportResult, error)
	SubmitCredentials(ctx context.Context, token, username, password string) (*service.CredentialResult, error)
}

// Handler serves the provider webhook and the tracking-token endpoints.
// None of them authenticate an admin.
type Handler struct {
	service Service
	schemas *schema.Validator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, schemas *schema.Validator, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		schemas: schemas,
		logger:  logger,
		metrics: metrics,
	}
}

// RegisterWebhook mounts the provider webhook.
func (h *Handler) RegisterWebhook(r chi.Router) {
	r.Post("/webhooks/email-provider", h.HandleWebhook)
}

// RegisterEvents mounts the tracking-token endpoints.
func (h *Handler) RegisterEvents(r chi.Router) {
	r.Post("/events/click", h.HandleClick)
	r.Post("/events/report-phish", h.HandleReportPhish)
	r.Post("/events/credential-submit-simulated", h.HandleCredentialSubmit)
}

type webhookBatchRequest struct {
	Events []service.WebhookEvent `json:"events"`
}

type trackingRequest struct {
	TrackingToken string `json:"trackingToken"`
}

type credentialRequest struct {
	TrackingToken string `json:"trackingToken"`
	Username      string `json:"username"`
	Password      string `json:"password"`
}

// HandleWebhook handles POST /webhooks/email-provider.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req webhookBatchRequest
	if err := h.schemas.Decode(r, schema.WebhookBatch, &req); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "invalid webhook batch", err)
		return
	}

	summary, err := h.service.IngestWebhookBatch(ctx, req.Events)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "webhook batch failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleClick handles POST /events/click.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req trackingRequest
	if err := h.schemas.Decode(r, schema.TrackingEvent, &req); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "invalid click request", err)
		return
	}

	userAgent := requestcontext.UserAgent(ctx)
	if userAgent == "" {
		userAgent = r.UserAgent()
	}
	res, err := h.service.Click(ctx, req.TrackingToken, userAgent)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "click failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleReportPhish handles POST /events/report-phish.
func (h *Handler) HandleReportPhish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req trackingRequest
	if err := h.schemas.Decode(r, schema.TrackingEvent, &req); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "invalid report request", err)
		return
	}

	res, err := h.service.ReportPhish(ctx, req.TrackingToken)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "report phish failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleCredentialSubmit handles POST /events/credential-submit-simulated.
// The request is never logged.
func (h *Handler) HandleCredentialSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialRequest
	if err := h.schemas.Decode(r, schema.CredentialSubmit, &req); err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "invalid credential submission", err)
		return
	}

	res, err := h.service.SubmitCredentials(ctx, req.TrackingToken, req.Username, req.Password)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "credential submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
