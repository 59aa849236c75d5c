package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phishsim/internal/platform/metrics"
	"phishsim/internal/training/service"
	"phishsim/internal/transport/http/schema"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/requestcontext"
)

// Service defines the training operations used by the handler.
type Service interface {
	Start(ctx context.Context, token string) (*service.StartResult, error)
	Complete(ctx context.Context, sessionID id.TrainingSessionID, in service.CompleteInput) (*service.CompleteResult, error)
}

// Handler serves the anonymous training endpoints. Callers authenticate
// with the recipient's tracking token or the session id it yielded.
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

// Register mounts training endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/training/start", h.HandleStart)
	r.Post("/training/{sessionId}/complete", h.HandleComplete)
}

type startRequest struct {
	TrackingToken string `json:"trackingToken"`
}

type completeRequest struct {
	Answers []int `json:"answers"`
	Score   *int  `json:"score"`
}

// HandleStart handles POST /training/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req startRequest
	if err := h.schemas.Decode(r, schema.TrackingEvent, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid training start request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Start(ctx, req.TrackingToken)
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "training start failed", err)
		return
	}

	h.logger.InfoContext(ctx, "training started",
		"request_id", requestID,
		"session_id", res.SessionID.String(),
		"module_id", res.Module.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleComplete handles POST /training/{sessionId}/complete.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := id.ParseTrainingSessionID(chi.URLParam(r, "sessionId"))
	if err != nil {
		// Malformed ids cannot name a session.
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "training session not found").
			WithReason("TRAINING_SESSION_NOT_FOUND"))
		return
	}

	var req completeRequest
	if err := h.schemas.Decode(r, schema.TrainingComplete, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid training complete request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Complete(ctx, sessionID, service.CompleteInput{Answers: req.Answers, Score: req.Score})
	if err != nil {
		httputil.LogAndWriteError(ctx, w, h.logger, "training complete failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
