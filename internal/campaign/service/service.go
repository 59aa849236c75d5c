package service

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"phishsim/internal/models"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/store"
	"phishsim/internal/training"
	"phishsim/internal/transport/email"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

const (
	defaultConcurrency    = 8
	sampleSize            = 5
	defaultRecordAttempts = 3
	defaultRecordBackoff  = 100 * time.Millisecond
)

// Service runs the campaign lifecycle for one tenant's admins: authoring,
// preview, scheduling, the two-phase dispatch and campaign pauses.
type Service struct {
	tx          store.Transactor
	sender      email.Sender
	renderer    *email.Renderer
	catalog     *training.Catalog
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
	baseURL     string

	recordAttempts int
	recordBackoff  time.Duration

	mu         sync.Mutex
	unrecorded map[id.CampaignID]*unrecordedDispatch
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

// WithConcurrency bounds in-flight provider calls during a dispatch.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPublicBaseURL sets the origin prefixed to tracking links.
func WithPublicBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRecordRetry bounds how often the dispatch record transaction is
// retried and the initial wait between attempts.
func WithRecordRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.recordAttempts = attempts
		}
		if backoff >= 0 {
			s.recordBackoff = backoff
		}
	}
}

func New(tx store.Transactor, sender email.Sender, renderer *email.Renderer, catalog *training.Catalog, opts ...Option) *Service {
	s := &Service{
		tx:          tx,
		sender:      sender,
		renderer:    renderer,
		catalog:     catalog,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,

		recordAttempts: defaultRecordAttempts,
		recordBackoff:  defaultRecordBackoff,
		unrecorded:     make(map[id.CampaignID]*unrecordedDispatch),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func actorTenant(st *store.State, actor requestcontext.ActorInfo) (*models.Tenant, error) {
	t, ok := st.Tenants[actor.TenantID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor tenant not found")
	}
	return t, nil
}

// tenantCampaign resolves a campaign under the actor's tenant only.
func tenantCampaign(st *store.State, tenantID id.TenantID, campaignID id.CampaignID) (*models.Campaign, error) {
	c, ok := st.Campaigns[campaignID]
	if !ok || c.TenantID != tenantID {
		return nil, campaignNotFound()
	}
	return c, nil
}

func campaignNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "campaign not found").WithReason("CAMPAIGN_NOT_FOUND")
}

func sendingDomainNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "sending domain not found").WithReason("SENDING_DOMAIN_NOT_FOUND")
}

// sendingDomainFor returns the campaign's domain if it still belongs to the
// tenant and is eligible for the campaign's sending mode.
func sendingDomainFor(st *store.State, c *models.Campaign) (*models.SendingDomain, error) {
	d, ok := st.SendingDomains[c.SendingDomainID]
	if !ok || d.TenantID != c.TenantID {
		return nil, sendingDomainNotFound()
	}
	if err := d.CanSendFor(c.SendingMode); err != nil {
		return nil, err
	}
	return d, nil
}

// invariantToValidation converts model constructor failures at the service edge.
func invariantToValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
