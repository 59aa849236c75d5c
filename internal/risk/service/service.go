package service

import (
	"log/slog"

	"phishsim/internal/models"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/store"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

// Service computes campaign and tenant risk, raises policy violations and
// runs the review and restriction workflow that consumes them.
type Service struct {
	tx      store.Transactor
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

func New(tx store.Transactor, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireOwner(actor requestcontext.ActorInfo) error {
	if actor.Role != string(models.RoleOwner) {
		return dErrors.New(dErrors.CodeForbidden, "only the tenant owner may perform this action")
	}
	return nil
}

func campaignNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "campaign not found").WithReason("CAMPAIGN_NOT_FOUND")
}

func violationNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "policy violation not found").WithReason("VIOLATION_NOT_FOUND")
}
