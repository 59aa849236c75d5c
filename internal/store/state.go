package store

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	id "phishsim/pkg/domain"
)

// State is the full platform document. Entity tables are keyed maps;
// journals are append-only slices whose elements are never mutated after
// being appended.
//
// Callbacks passed to Read must treat State as immutable. Inside Write the
// State is a private copy and may be mutated freely.
type State struct {
	Version int                `json:"version"`
	System  models.SystemState `json:"system"`

	Tenants          map[id.TenantID]*models.Tenant                   `json:"tenants"`
	AdminUsers       map[id.AdminID]*models.AdminUser                 `json:"adminUsers"`
	TargetDomains    map[id.TargetDomainID]*models.TargetDomain       `json:"targetDomains"`
	SendingDomains   map[id.SendingDomainID]*models.SendingDomain     `json:"sendingDomains"`
	Employees        map[id.EmployeeID]*models.Employee               `json:"employees"`
	Campaigns        map[id.CampaignID]*models.Campaign               `json:"campaigns"`
	Recipients       map[id.RecipientID]*models.CampaignRecipient     `json:"campaignRecipients"`
	TrainingSessions map[id.TrainingSessionID]*models.TrainingSession `json:"trainingSessions"`
	Violations       map[id.ViolationID]*models.PolicyViolation       `json:"policyViolations"`

	Events              []*models.RecipientEvent     `json:"recipientEvents"`
	QuizAttempts        []*models.QuizAttempt        `json:"quizAttempts"`
	ProcessedWebhooks   []*models.ProcessedWebhook   `json:"processedWebhooks"`
	OperationalControls []*models.OperationalControl `json:"operationalControls"`
	AuditLogs           []*models.AuditLog           `json:"auditLogs"`

	idx     indexes
	pending []*models.AuditLog
	now     time.Time
}

type campaignEmployee struct {
	campaign id.CampaignID
	employee id.EmployeeID
}

type webhookKey struct {
	provider string
	eventID  string
}

// indexes are derived from the tables and never persisted.
type indexes struct {
	eventByKey         map[string]int
	eventsByRecipient  map[id.RecipientID][]int
	recipientByToken   map[string]id.RecipientID
	recipientByMessage map[string]id.RecipientID
	recipientByPair    map[campaignEmployee]id.RecipientID
	sessionByRecipient map[id.RecipientID]id.TrainingSessionID
	attemptBySession   map[id.TrainingSessionID]int
	webhooks           map[webhookKey]struct{}
	adminByEmail       map[string]id.AdminID
}

func newState() *State {
	s := &State{
		Version:          CurrentVersion,
		Tenants:          map[id.TenantID]*models.Tenant{},
		AdminUsers:       map[id.AdminID]*models.AdminUser{},
		TargetDomains:    map[id.TargetDomainID]*models.TargetDomain{},
		SendingDomains:   map[id.SendingDomainID]*models.SendingDomain{},
		Employees:        map[id.EmployeeID]*models.Employee{},
		Campaigns:        map[id.CampaignID]*models.Campaign{},
		Recipients:       map[id.RecipientID]*models.CampaignRecipient{},
		TrainingSessions: map[id.TrainingSessionID]*models.TrainingSession{},
		Violations:       map[id.ViolationID]*models.PolicyViolation{},
	}
	s.rebuildIndexes()
	return s
}

// ensureTables fills tables missing from older or hand-edited documents.
func (s *State) ensureTables() {
	if s.Tenants == nil {
		s.Tenants = map[id.TenantID]*models.Tenant{}
	}
	if s.AdminUsers == nil {
		s.AdminUsers = map[id.AdminID]*models.AdminUser{}
	}
	if s.TargetDomains == nil {
		s.TargetDomains = map[id.TargetDomainID]*models.TargetDomain{}
	}
	if s.SendingDomains == nil {
		s.SendingDomains = map[id.SendingDomainID]*models.SendingDomain{}
	}
	if s.Employees == nil {
		s.Employees = map[id.EmployeeID]*models.Employee{}
	}
	if s.Campaigns == nil {
		s.Campaigns = map[id.CampaignID]*models.Campaign{}
	}
	if s.Recipients == nil {
		s.Recipients = map[id.RecipientID]*models.CampaignRecipient{}
	}
	if s.TrainingSessions == nil {
		s.TrainingSessions = map[id.TrainingSessionID]*models.TrainingSession{}
	}
	if s.Violations == nil {
		s.Violations = map[id.ViolationID]*models.PolicyViolation{}
	}
}

func (s *State) rebuildIndexes() {
	s.idx = indexes{
		eventByKey:         make(map[string]int, len(s.Events)),
		eventsByRecipient:  make(map[id.RecipientID][]int, len(s.Recipients)),
		recipientByToken:   make(map[string]id.RecipientID, len(s.Recipients)),
		recipientByMessage: make(map[string]id.RecipientID, len(s.Recipients)),
		recipientByPair:    make(map[campaignEmployee]id.RecipientID, len(s.Recipients)),
		sessionByRecipient: make(map[id.RecipientID]id.TrainingSessionID, len(s.TrainingSessions)),
		attemptBySession:   make(map[id.TrainingSessionID]int, len(s.QuizAttempts)),
		webhooks:           make(map[webhookKey]struct{}, len(s.ProcessedWebhooks)),
		adminByEmail:       make(map[string]id.AdminID, len(s.AdminUsers)),
	}
	for i, e := range s.Events {
		s.idx.eventByKey[e.DedupeKey.String()] = i
		s.idx.eventsByRecipient[e.RecipientID] = append(s.idx.eventsByRecipient[e.RecipientID], i)
	}
	for _, r := range s.Recipients {
		s.indexRecipient(r)
	}
	for _, t := range s.TrainingSessions {
		s.idx.sessionByRecipient[t.RecipientID] = t.ID
	}
	for i, a := range s.QuizAttempts {
		s.idx.attemptBySession[a.SessionID] = i
	}
	for _, w := range s.ProcessedWebhooks {
		s.idx.webhooks[webhookKey{w.Provider, w.EventID}] = struct{}{}
	}
	for _, a := range s.AdminUsers {
		s.idx.adminByEmail[a.Email] = a.ID
	}
}

func (s *State) indexRecipient(r *models.CampaignRecipient) {
	s.idx.recipientByToken[r.TrackingToken] = r.ID
	s.idx.recipientByPair[campaignEmployee{r.CampaignID, r.EmployeeID}] = r.ID
	if r.ProviderMessageID != nil {
		s.idx.recipientByMessage[*r.ProviderMessageID] = r.ID
	}
}

func cloneTable[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

// clone returns a private working copy for a write transaction. Table
// entries are copied by value; journal entries are shared since they are
// immutable once appended.
func (s *State) clone(now time.Time) *State {
	return &State{
		Version:             s.Version,
		System:              s.System,
		Tenants:             cloneTable(s.Tenants),
		AdminUsers:          cloneTable(s.AdminUsers),
		TargetDomains:       cloneTable(s.TargetDomains),
		SendingDomains:      cloneTable(s.SendingDomains),
		Employees:           cloneTable(s.Employees),
		Campaigns:           cloneTable(s.Campaigns),
		Recipients:          cloneTable(s.Recipients),
		TrainingSessions:    cloneTable(s.TrainingSessions),
		Violations:          cloneTable(s.Violations),
		Events:              slices.Clone(s.Events),
		QuizAttempts:        slices.Clone(s.QuizAttempts),
		ProcessedWebhooks:   slices.Clone(s.ProcessedWebhooks),
		OperationalControls: slices.Clone(s.OperationalControls),
		AuditLogs:           slices.Clone(s.AuditLogs),
		idx: indexes{
			eventByKey:         maps.Clone(s.idx.eventByKey),
			eventsByRecipient:  maps.Clone(s.idx.eventsByRecipient),
			recipientByToken:   maps.Clone(s.idx.recipientByToken),
			recipientByMessage: maps.Clone(s.idx.recipientByMessage),
			recipientByPair:    maps.Clone(s.idx.recipientByPair),
			sessionByRecipient: maps.Clone(s.idx.sessionByRecipient),
			attemptBySession:   maps.Clone(s.idx.attemptBySession),
			webhooks:           maps.Clone(s.idx.webhooks),
			adminByEmail:       maps.Clone(s.idx.adminByEmail),
		},
		now: now,
	}
}

// Now is the timestamp of the current transaction. All rows written in one
// Write share it.
func (s *State) Now() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

// NewID returns a random identifier.
func (s *State) NewID() uuid.UUID {
	return uuid.New()
}

// ---------------------------------------------------------------------------
// Dedup primitives
// ---------------------------------------------------------------------------

// NewEvent describes an event to insert if its key is unseen.
type NewEvent struct {
	Recipient  *models.CampaignRecipient
	Key        dedupe.Key
	Metadata   map[string]any
	OccurredAt *time.Time
}

// InsertEventIfAbsent appends the event unless one with the same dedupe key
// exists, in which case the existing event is returned with created false.
func (s *State) InsertEventIfAbsent(in NewEvent) (*models.RecipientEvent, bool) {
	key := in.Key.String()
	if i, ok := s.idx.eventByKey[key]; ok {
		return s.Events[i], false
	}
	now := s.Now()
	occurred := now
	if in.OccurredAt != nil {
		occurred = in.OccurredAt.UTC()
	}
	meta := in.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	e := &models.RecipientEvent{
		ID:          id.EventID(s.NewID()),
		TenantID:    in.Recipient.TenantID,
		RecipientID: in.Recipient.ID,
		Type:        in.Key.EventType,
		DedupeKey:   in.Key,
		DataClass:   in.Recipient.DataClass,
		Metadata:    meta,
		OccurredAt:  occurred,
		CreatedAt:   now,
	}
	s.Events = append(s.Events, e)
	i := len(s.Events) - 1
	s.idx.eventByKey[key] = i
	// Clip so the append never writes into an array the committed
	// snapshot still references.
	s.idx.eventsByRecipient[e.RecipientID] = append(slices.Clip(s.idx.eventsByRecipient[e.RecipientID]), i)
	return e, true
}

// EventByKey looks up an event by its dedupe key.
func (s *State) EventByKey(k dedupe.Key) (*models.RecipientEvent, bool) {
	i, ok := s.idx.eventByKey[k.String()]
	if !ok {
		return nil, false
	}
	return s.Events[i], true
}

// MarkWebhookProcessed records (provider, eventID) and reports whether it
// was new.
func (s *State) MarkWebhookProcessed(provider, eventID, messageID string) bool {
	k := webhookKey{provider, eventID}
	if _, seen := s.idx.webhooks[k]; seen {
		return false
	}
	s.ProcessedWebhooks = append(s.ProcessedWebhooks, &models.ProcessedWebhook{
		ID:          id.WebhookID(s.NewID()),
		Provider:    provider,
		EventID:     eventID,
		MessageID:   messageID,
		ProcessedAt: s.Now(),
	})
	s.idx.webhooks[k] = struct{}{}
	return true
}

// ---------------------------------------------------------------------------
// Recipients
// ---------------------------------------------------------------------------

// RecipientFor returns the recipient of employee in campaign, if materialized.
func (s *State) RecipientFor(campaignID id.CampaignID, employeeID id.EmployeeID) (*models.CampaignRecipient, bool) {
	rid, ok := s.idx.recipientByPair[campaignEmployee{campaignID, employeeID}]
	if !ok {
		return nil, false
	}
	return s.Recipients[rid], true
}

func (s *State) RecipientByToken(token string) (*models.CampaignRecipient, bool) {
	rid, ok := s.idx.recipientByToken[token]
	if !ok {
		return nil, false
	}
	return s.Recipients[rid], true
}

func (s *State) RecipientByMessageID(messageID string) (*models.CampaignRecipient, bool) {
	rid, ok := s.idx.recipientByMessage[messageID]
	if !ok {
		return nil, false
	}
	return s.Recipients[rid], true
}

// PutRecipient inserts or replaces a recipient and keeps indexes current.
func (s *State) PutRecipient(r *models.CampaignRecipient) {
	s.Recipients[r.ID] = r
	s.indexRecipient(r)
}

// CampaignRecipients lists a campaign's recipients oldest first.
func (s *State) CampaignRecipients(campaignID id.CampaignID) []*models.CampaignRecipient {
	var out []*models.CampaignRecipient
	for _, r := range s.Recipients {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	sortByCreated(out, func(r *models.CampaignRecipient) (time.Time, string) { return r.CreatedAt, r.ID.String() })
	return out
}

// RecipientEvents returns the events of one recipient in append order.
func (s *State) RecipientEvents(recipientID id.RecipientID) []*models.RecipientEvent {
	positions := s.idx.eventsByRecipient[recipientID]
	if len(positions) == 0 {
		return nil
	}
	out := make([]*models.RecipientEvent, len(positions))
	for i, p := range positions {
		out[i] = s.Events[p]
	}
	return out
}

// ---------------------------------------------------------------------------
// Training
// ---------------------------------------------------------------------------

func (s *State) SessionForRecipient(recipientID id.RecipientID) (*models.TrainingSession, bool) {
	sid, ok := s.idx.sessionByRecipient[recipientID]
	if !ok {
		return nil, false
	}
	return s.TrainingSessions[sid], true
}

// GetOrCreateTrainingSession returns the recipient's single session, creating
// it with moduleID on first use.
func (s *State) GetOrCreateTrainingSession(r *models.CampaignRecipient, moduleID string) (*models.TrainingSession, bool) {
	if existing, ok := s.SessionForRecipient(r.ID); ok {
		return existing, false
	}
	session := &models.TrainingSession{
		ID:          id.TrainingSessionID(s.NewID()),
		TenantID:    r.TenantID,
		RecipientID: r.ID,
		ModuleID:    moduleID,
		StartedAt:   s.Now(),
		DataClass:   r.DataClass,
	}
	s.TrainingSessions[session.ID] = session
	s.idx.sessionByRecipient[r.ID] = session.ID
	return session, true
}

func (s *State) AttemptForSession(sessionID id.TrainingSessionID) (*models.QuizAttempt, bool) {
	i, ok := s.idx.attemptBySession[sessionID]
	if !ok {
		return nil, false
	}
	return s.QuizAttempts[i], true
}

// AppendQuizAttempt records an attempt; a second attempt for the same
// session is ignored and the first one returned.
func (s *State) AppendQuizAttempt(a *models.QuizAttempt) (*models.QuizAttempt, bool) {
	if existing, ok := s.AttemptForSession(a.SessionID); ok {
		return existing, false
	}
	s.QuizAttempts = append(s.QuizAttempts, a)
	s.idx.attemptBySession[a.SessionID] = len(s.QuizAttempts) - 1
	return a, true
}

// ---------------------------------------------------------------------------
// Tenancy
// ---------------------------------------------------------------------------

func (s *State) AdminByEmail(email string) (*models.AdminUser, bool) {
	aid, ok := s.idx.adminByEmail[email]
	if !ok {
		return nil, false
	}
	return s.AdminUsers[aid], true
}

func (s *State) PutAdmin(a *models.AdminUser) {
	s.AdminUsers[a.ID] = a
	s.idx.adminByEmail[a.Email] = a.ID
}

// TargetDomainFor returns the tenant's single target domain.
func (s *State) TargetDomainFor(tenantID id.TenantID) (*models.TargetDomain, bool) {
	for _, d := range s.TargetDomains {
		if d.TenantID == tenantID {
			return d, true
		}
	}
	return nil, false
}

func (s *State) TenantSendingDomains(tenantID id.TenantID) []*models.SendingDomain {
	var out []*models.SendingDomain
	for _, d := range s.SendingDomains {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	sortByCreated(out, func(d *models.SendingDomain) (time.Time, string) { return d.CreatedAt, d.ID.String() })
	return out
}

func (s *State) TenantEmployees(tenantID id.TenantID) []*models.Employee {
	var out []*models.Employee
	for _, e := range s.Employees {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	sortByCreated(out, func(e *models.Employee) (time.Time, string) { return e.CreatedAt, e.ID.String() })
	return out
}

func (s *State) TenantCampaigns(tenantID id.TenantID) []*models.Campaign {
	var out []*models.Campaign
	for _, c := range s.Campaigns {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	sortByCreated(out, func(c *models.Campaign) (time.Time, string) { return c.CreatedAt, c.ID.String() })
	return out
}

func (s *State) TenantViolations(tenantID id.TenantID) []*models.PolicyViolation {
	var out []*models.PolicyViolation
	for _, v := range s.Violations {
		if v.TenantID == tenantID {
			out = append(out, v)
		}
	}
	sortByCreated(out, func(v *models.PolicyViolation) (time.Time, string) { return v.CreatedAt, v.ID.String() })
	return out
}

// ---------------------------------------------------------------------------
// Journals
// ---------------------------------------------------------------------------

// AppendAudit journals an action. Entries appended inside a Write are handed
// to commit hooks once the transaction is durable.
func (s *State) AppendAudit(entry *models.AuditLog) {
	if entry.ID == (id.AuditLogID{}) {
		entry.ID = id.AuditLogID(s.NewID())
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.Now()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	s.AuditLogs = append(s.AuditLogs, entry)
	s.pending = append(s.pending, entry)
}

func (s *State) AppendControl(c *models.OperationalControl) {
	if c.ID == (id.ControlID{}) {
		c.ID = id.ControlID(s.NewID())
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.Now()
	}
	s.OperationalControls = append(s.OperationalControls, c)
}

func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	slices.SortStableFunc(items, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return cmp.Compare(ia, ib)
	})
}
