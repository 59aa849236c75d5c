package service

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"phishsim/internal/models"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

const (
	defaultSimDomain = "sim.phishsim.local"
	maxSlugLength    = 40
)

// Service manages tenant onboarding: signup, admins, domains, sending and
// lifecycle modes, and the employee roster.
type Service struct {
	tx        store.Transactor
	simDomain string
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

// WithPlatformSimDomain sets the parent domain of dedicated sending domains.
func WithPlatformSimDomain(domain string) Option {
	return func(s *Service) {
		if domain = normalizeDomain(domain); domain != "" {
			s.simDomain = domain
		}
	}
}

func New(tx store.Transactor, opts ...Option) *Service {
	s := &Service{
		tx:        tx,
		simDomain: defaultSimDomain,
		logger:    slog.Default(),
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

// ownTenant rejects actions addressed at a tenant other than the actor's.
func ownTenant(actor requestcontext.ActorInfo, tenantID id.TenantID) error {
	if tenantID != actor.TenantID {
		return dErrors.New(dErrors.CodeForbidden, "cannot change another tenant")
	}
	return nil
}

func invariantToValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases name and collapses every run of other characters into a
// single dash.
func slugify(name string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "tenant"
	}
	return slug
}

// uniqueSlug appends -2, -3, ... until the slug is unused.
func uniqueSlug(st *store.State, base string) string {
	taken := make(map[string]struct{}, len(st.Tenants))
	for _, t := range st.Tenants {
		taken[t.Slug] = struct{}{}
	}
	slug := base
	for n := 2; ; n++ {
		if _, ok := taken[slug]; !ok {
			return slug
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

func normalizeDomain(domain string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
}

func (s *Service) dedicatedDomain(slug string) string {
	return slug + "." + s.simDomain
}
