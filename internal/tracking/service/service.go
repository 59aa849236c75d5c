package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/platform/metrics"
	"phishsim/internal/platform/tracing"
	"phishsim/internal/store"
	"phishsim/internal/training"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

const defaultProvider = "mock"

// Service ingests recipient interactions from the provider webhook and the
// anonymous tracking-token endpoints. Ingestion is never gated by pauses or
// tenant restriction.
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

// WebhookEvent is one entry of a provider webhook batch.
type WebhookEvent struct {
	Provider   string           `json:"provider"`
	EventID    string           `json:"eventId"`
	MessageID  string           `json:"messageId"`
	EventType  dedupe.EventType `json:"eventType"`
	OccurredAt *time.Time       `json:"occurredAt"`
	Metadata   map[string]any   `json:"metadata"`
}

// BatchSummary counts the outcome of each batch entry. Processed counts
// entries whose webhook identity was new; the other counters partition them.
type BatchSummary struct {
	Processed        int `json:"processed"`
	DuplicateWebhook int `json:"duplicateWebhook"`
	DuplicateEvent   int `json:"duplicateEvent"`
	UnknownMessage   int `json:"unknownMessage"`
	CreatedEvents    int `json:"createdEvents"`
}

// IngestWebhookBatch applies a batch in one transaction. Each entry is
// deduplicated first by (provider, eventId) and then by its logical event
// key recipient:type:provider:messageId.
func (s *Service) IngestWebhookBatch(ctx context.Context, events []WebhookEvent) (summary BatchSummary, err error) {
	ctx, span := tracing.Start(ctx, "tracking.webhook_batch")
	defer func() { tracing.End(span, err) }()

	for _, ev := range events {
		if !ev.EventType.IsProviderType() {
			return BatchSummary{}, dErrors.New(dErrors.CodeValidation, "unsupported webhook event type").
				WithDetail("eventType", string(ev.EventType))
		}
	}

	var created []dedupe.EventType
	summary, err = store.Update(ctx, s.tx, func(st *store.State) (BatchSummary, error) {
		var sum BatchSummary
		created = created[:0]
		for _, ev := range events {
			provider := ev.Provider
			if provider == "" {
				provider = defaultProvider
			}
			if !st.MarkWebhookProcessed(provider, ev.EventID, ev.MessageID) {
				sum.DuplicateWebhook++
				continue
			}
			sum.Processed++

			r, ok := st.RecipientByMessageID(ev.MessageID)
			if !ok {
				sum.UnknownMessage++
				continue
			}
			_, isNew := st.InsertEventIfAbsent(store.NewEvent{
				Recipient:  r,
				Key:        dedupe.New(r.ID, ev.EventType, dedupe.ProviderMessage(ev.MessageID)),
				Metadata:   ev.Metadata,
				OccurredAt: ev.OccurredAt,
			})
			if !isNew {
				sum.DuplicateEvent++
				continue
			}
			sum.CreatedEvents++
			created = append(created, ev.EventType)
			if ev.EventType == dedupe.EventClick {
				if enrollment := s.enroll(st, r, "webhook"); enrollment.StartedCreated {
					created = append(created, dedupe.EventTrainingStarted)
				}
			}
		}
		return sum, nil
	})
	if err != nil {
		return BatchSummary{}, err
	}

	s.metrics.AddWebhookOutcome("created", summary.CreatedEvents)
	s.metrics.AddWebhookOutcome("duplicate_webhook", summary.DuplicateWebhook)
	s.metrics.AddWebhookOutcome("duplicate_event", summary.DuplicateEvent)
	s.metrics.AddWebhookOutcome("unknown_message", summary.UnknownMessage)
	for _, t := range created {
		s.metrics.IncrementEventCreated(string(t))
	}
	s.logger.InfoContext(ctx, "webhook batch ingested",
		"events", len(events),
		"processed", summary.Processed,
		"duplicate_webhook", summary.DuplicateWebhook,
		"duplicate_event", summary.DuplicateEvent,
		"unknown_message", summary.UnknownMessage,
		"created_events", summary.CreatedEvents,
	)
	return summary, nil
}

// ClickResult identifies the training session a click enrolled into.
type ClickResult struct {
	TrainingSessionID id.TrainingSessionID `json:"trainingSessionId"`
	DataClass         models.DataClass     `json:"dataClass"`
}

// Click records a manual click and enrolls the recipient into training.
// userAgent is reduced to a browser/os/mobile summary.
func (s *Service) Click(ctx context.Context, token, userAgent string) (*ClickResult, error) {
	var clickCreated, startedCreated bool
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*ClickResult, error) {
		r, ok := st.RecipientByToken(token)
		if !ok {
			return nil, trackingTokenNotFound()
		}
		meta := map[string]any{"source": "manual_api"}
		if summary := summarizeUserAgent(userAgent); summary != nil {
			meta["userAgent"] = summary
		}
		_, clickCreated = st.InsertEventIfAbsent(store.NewEvent{
			Recipient: r,
			Key:       dedupe.New(r.ID, dedupe.EventClick, dedupe.Manual()),
			Metadata:  meta,
		})
		enrollment := s.enroll(st, r, "manual_api")
		startedCreated = enrollment.StartedCreated
		return &ClickResult{TrainingSessionID: enrollment.Session.ID, DataClass: r.DataClass}, nil
	})
	if err != nil {
		return nil, err
	}
	if clickCreated {
		s.metrics.IncrementEventCreated(string(dedupe.EventClick))
	}
	if startedCreated {
		s.metrics.IncrementEventCreated(string(dedupe.EventTrainingStarted))
	}
	return res, nil
}

// ReportResult says whether the report was new.
type ReportResult struct {
	Created bool `json:"created"`
}

func (s *Service) ReportPhish(ctx context.Context, token string) (*ReportResult, error) {
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*ReportResult, error) {
		r, ok := st.RecipientByToken(token)
		if !ok {
			return nil, trackingTokenNotFound()
		}
		_, created := st.InsertEventIfAbsent(store.NewEvent{
			Recipient: r,
			Key:       dedupe.New(r.ID, dedupe.EventReported, dedupe.Manual()),
			Metadata:  map[string]any{"source": "manual_api"},
		})
		return &ReportResult{Created: created}, nil
	})
	if err != nil {
		return nil, err
	}
	if res.Created {
		s.metrics.IncrementEventCreated(string(dedupe.EventReported))
	}
	return res, nil
}

// CredentialResult echoes what was kept of a simulated credential submission.
type CredentialResult struct {
	Created        bool           `json:"created"`
	StoredMetadata map[string]any `json:"storedMetadata"`
}

// SubmitCredentials records a simulated credential submission. The password
// is never stored; only whether one was entered.
func (s *Service) SubmitCredentials(ctx context.Context, token, username, password string) (*CredentialResult, error) {
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*CredentialResult, error) {
		r, ok := st.RecipientByToken(token)
		if !ok {
			return nil, trackingTokenNotFound()
		}
		ev, created := st.InsertEventIfAbsent(store.NewEvent{
			Recipient: r,
			Key:       dedupe.New(r.ID, dedupe.EventCredentialSubmit, dedupe.Manual()),
			Metadata:  models.CredentialMetadata(username, password),
		})
		return &CredentialResult{Created: created, StoredMetadata: ev.Metadata}, nil
	})
	if err != nil {
		return nil, err
	}
	if res.Created {
		s.metrics.IncrementEventCreated(string(dedupe.EventCredentialSubmit))
	}
	return res, nil
}

func (s *Service) enroll(st *store.State, r *models.CampaignRecipient, source string) training.Enrollment {
	moduleID := s.catalog.DefaultID()
	if c, ok := st.Campaigns[r.CampaignID]; ok {
		moduleID = s.catalog.Resolve(c.TrainingModuleID).ID
	}
	return training.Enroll(st, r, moduleID, source)
}

// summarizeUserAgent keeps only coarse client traits.
func summarizeUserAgent(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	return map[string]any{
		"browser": browser,
		"os":      ua.OS(),
		"mobile":  ua.Mobile(),
		"bot":     ua.Bot(),
	}
}

func trackingTokenNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "tracking token not found").WithReason("TRACKING_TOKEN_NOT_FOUND")
}
