package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/store"
	"phishsim/internal/training"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

// Service runs anonymous, token-driven training sessions. It is never
// gated by pauses or tenant restriction.
type Service struct {
	tx      store.Transactor
	catalog *training.Catalog
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(tx store.Transactor, catalog *training.Catalog, opts ...Option) *Service {
	s := &Service{
		tx:      tx,
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartResult is returned by Start. Quiz questions never carry the answer key.
type StartResult struct {
	SessionID id.TrainingSessionID `json:"sessionId"`
	Module    training.Module      `json:"module"`
	Quiz      []training.Question  `json:"quiz"`
}

// Start gets or creates the session of the recipient owning token.
func (s *Service) Start(ctx context.Context, token string) (*StartResult, error) {
	var started bool
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*StartResult, error) {
		r, ok := st.RecipientByToken(token)
		if !ok {
			return nil, trackingTokenNotFound()
		}
		module := s.catalog.Resolve(s.moduleFor(st, r))
		enrollment := training.Enroll(st, r, module.ID, "training_start_api")
		started = enrollment.StartedCreated
		return &StartResult{
			SessionID: enrollment.Session.ID,
			Module:    module,
			Quiz:      slices.Clone(module.Questions),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if started {
		s.metrics.IncrementEventCreated(string(dedupe.EventTrainingStarted))
	}
	return res, nil
}

// CompleteInput carries quiz answers and an optional score override.
type CompleteInput struct {
	Answers []int
	Score   *int
}

type CompleteResult struct {
	SessionID   id.TrainingSessionID `json:"sessionId"`
	Score       int                  `json:"score"`
	Passed      bool                 `json:"passed"`
	CompletedAt time.Time            `json:"completedAt"`
}

// Complete grades and closes a session. Completion is recorded once; a
// repeat call returns the stored attempt.
func (s *Service) Complete(ctx context.Context, sessionID id.TrainingSessionID, in CompleteInput) (*CompleteResult, error) {
	if in.Score != nil && (*in.Score < 0 || *in.Score > 100) {
		return nil, dErrors.New(dErrors.CodeValidation, "score must be between 0 and 100")
	}
	for _, a := range in.Answers {
		if a < 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "answers must be non-negative option indexes")
		}
	}

	var completedEvent bool
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*CompleteResult, error) {
		session, ok := st.TrainingSessions[sessionID]
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "training session not found").
				WithReason("TRAINING_SESSION_NOT_FOUND")
		}
		r, ok := st.Recipients[session.RecipientID]
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign recipient not found").
				WithReason("RECIPIENT_NOT_FOUND")
		}

		score, passed := s.grade(session, in)
		if prior, ok := st.AttemptForSession(session.ID); ok {
			score, passed = prior.Score, prior.Passed
		}

		session.ApplyCompletion(st.Now())
		st.AppendQuizAttempt(&models.QuizAttempt{
			ID:        id.QuizAttemptID(st.NewID()),
			TenantID:  session.TenantID,
			SessionID: session.ID,
			Score:     score,
			Passed:    passed,
			Answers:   append([]int{}, in.Answers...),
			CreatedAt: st.Now(),
		})
		_, completedEvent = st.InsertEventIfAbsent(store.NewEvent{
			Recipient: r,
			Key:       dedupe.New(r.ID, dedupe.EventTrainingCompleted, dedupe.TrainingSession(session.ID)),
			Metadata:  map[string]any{"score": score, "passed": passed},
		})

		return &CompleteResult{
			SessionID:   session.ID,
			Score:       score,
			Passed:      passed,
			CompletedAt: *session.CompletedAt,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if completedEvent {
		s.metrics.IncrementEventCreated(string(dedupe.EventTrainingCompleted))
		s.logger.InfoContext(ctx, "training completed",
			"session_id", res.SessionID.String(),
			"score", res.Score,
			"passed", res.Passed,
		)
	}
	return res, nil
}

func (s *Service) grade(session *models.TrainingSession, in CompleteInput) (int, bool) {
	score := s.catalog.Resolve(session.ModuleID).Grade(in.Answers)
	if in.Score != nil {
		score = *in.Score
	}
	return score, training.Passed(score)
}

func (s *Service) moduleFor(st *store.State, r *models.CampaignRecipient) string {
	if c, ok := st.Campaigns[r.CampaignID]; ok {
		return c.TrainingModuleID
	}
	return s.catalog.DefaultID()
}

func trackingTokenNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "tracking token not found").WithReason("TRACKING_TOKEN_NOT_FOUND")
}
