// Package service answers read-only reporting queries: employee timelines,
// employee history and the audit journal.
package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

// auditPageSize bounds GET /audit-logs.
const auditPageSize = 100

// previewEventType is shown on timelines that have no recorded events yet.
const previewEventType = "simulation_preview_sent"

type Service struct {
	tx     store.Transactor
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(tx store.Transactor, opts ...Option) *Service {
	s := &Service{tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TimelineEvent is one interaction rendered for people.
type TimelineEvent struct {
	Type       string           `json:"type"`
	At         time.Time        `json:"at"`
	DataClass  models.DataClass `json:"dataClass"`
	Detail     string           `json:"detail"`
	CampaignID *id.CampaignID   `json:"campaignId,omitempty"`
}

type Timeline struct {
	Employee *models.Employee `json:"employee"`
	Scope    models.Scope     `json:"scope"`
	Badge    string           `json:"badge"`
	Events   []TimelineEvent  `json:"events"`
}

// Participation is one campaign the employee was targeted by.
type Participation struct {
	CampaignID   id.CampaignID     `json:"campaignId"`
	CampaignName string            `json:"campaignName"`
	SendStatus   models.SendStatus `json:"sendStatus"`
	SentAt       *time.Time        `json:"sentAt"`
	DataClass    models.DataClass  `json:"dataClass"`
	Training     string            `json:"training"`
}

type History struct {
	Employee  *models.Employee `json:"employee"`
	Campaigns []Participation  `json:"campaigns"`
	Events    []TimelineEvent  `json:"events"`
}

func requireReader(actor requestcontext.ActorInfo) error {
	switch models.AdminRole(actor.Role) {
	case models.RoleOwner, models.RoleAdmin:
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "role may not read employee reports")
}

func tenantEmployee(st *store.State, tenantID id.TenantID, employeeID id.EmployeeID) (*models.Employee, error) {
	e, ok := st.Employees[employeeID]
	if !ok || e.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, "employee not found").WithReason("EMPLOYEE_NOT_FOUND")
	}
	return e, nil
}

type employeeRecipient struct {
	recipient *models.CampaignRecipient
	campaign  *models.Campaign
}

func employeeRecipients(st *store.State, e *models.Employee) []employeeRecipient {
	var out []employeeRecipient
	for _, c := range st.TenantCampaigns(e.TenantID) {
		if r, ok := st.RecipientFor(c.ID, e.ID); ok {
			out = append(out, employeeRecipient{recipient: r, campaign: c})
		}
	}
	return out
}

func employeeEvents(st *store.State, recipients []employeeRecipient, scope models.Scope) []TimelineEvent {
	var out []TimelineEvent
	for _, er := range recipients {
		cid := er.campaign.ID
		for _, ev := range st.RecipientEvents(er.recipient.ID) {
			if !scope.Includes(ev.DataClass) {
				continue
			}
			out = append(out, TimelineEvent{
				Type:       string(ev.Type),
				At:         ev.OccurredAt,
				DataClass:  ev.DataClass,
				Detail:     string(ev.Type) + " on campaign " + er.campaign.Name,
				CampaignID: &cid,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b TimelineEvent) int { return a.At.Compare(b.At) })
	if out == nil {
		out = []TimelineEvent{}
	}
	return out
}

// badge reports which data classes the events mix.
func badge(events []TimelineEvent) string {
	var demo, reals bool
	for _, ev := range events {
		switch ev.DataClass {
		case models.DataClassReal:
			reals = true
		default:
			demo = true
		}
	}
	switch {
	case demo && reals:
		return "mixed"
	case reals:
		return "real-only"
	default:
		return "demo-only"
	}
}

// Timeline lists an employee's events in the given scope, oldest first. An
// empty timeline gets a single demo preview event so the view is never blank.
func (s *Service) Timeline(ctx context.Context, actor requestcontext.ActorInfo, employeeID id.EmployeeID, scope models.Scope) (*Timeline, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	return store.View(ctx, s.tx, func(st *store.State) (*Timeline, error) {
		e, err := tenantEmployee(st, actor.TenantID, employeeID)
		if err != nil {
			return nil, err
		}
		events := employeeEvents(st, employeeRecipients(st, e), scope)
		if len(events) == 0 {
			events = append(events, previewEvent(st, e.TenantID))
		}
		return &Timeline{Employee: e, Scope: scope, Badge: badge(events), Events: events}, nil
	})
}

func previewEvent(st *store.State, tenantID id.TenantID) TimelineEvent {
	ev := TimelineEvent{
		Type:      previewEventType,
		At:        st.Now(),
		DataClass: models.DataClassDemoOnly,
		Detail:    "Preview generated for demo campaign",
	}
	if campaigns := st.TenantCampaigns(tenantID); len(campaigns) > 0 {
		c := campaigns[0]
		ev.At = c.CreatedAt
		ev.Detail = "Preview generated for campaign " + c.Name
		ev.CampaignID = &c.ID
	}
	return ev
}

// History returns every campaign the employee took part in and all their
// events regardless of data class.
func (s *Service) History(ctx context.Context, actor requestcontext.ActorInfo, employeeID id.EmployeeID) (*History, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	return store.View(ctx, s.tx, func(st *store.State) (*History, error) {
		e, err := tenantEmployee(st, actor.TenantID, employeeID)
		if err != nil {
			return nil, err
		}
		recipients := employeeRecipients(st, e)
		campaigns := make([]Participation, 0, len(recipients))
		for _, er := range recipients {
			campaigns = append(campaigns, Participation{
				CampaignID:   er.campaign.ID,
				CampaignName: er.campaign.Name,
				SendStatus:   er.recipient.SendStatus,
				SentAt:       er.recipient.SentAt,
				DataClass:    er.recipient.DataClass,
				Training:     trainingState(st, er.recipient),
			})
		}
		return &History{
			Employee:  e,
			Campaigns: campaigns,
			Events:    employeeEvents(st, recipients, models.ScopeAll),
		}, nil
	})
}

func trainingState(st *store.State, r *models.CampaignRecipient) string {
	session, ok := st.SessionForRecipient(r.ID)
	switch {
	case !ok:
		clicked := slices.ContainsFunc(st.RecipientEvents(r.ID), func(ev *models.RecipientEvent) bool {
			return ev.Type == dedupe.EventClick
		})
		if clicked {
			return "not_started"
		}
		return "none"
	case session.IsCompleted():
		return "completed"
	default:
		return "started"
	}
}

// AuditLogs returns the latest journal entries visible to the tenant, its
// own and global ones, newest first.
func (s *Service) AuditLogs(ctx context.Context, actor requestcontext.ActorInfo) ([]*models.AuditLog, error) {
	return store.View(ctx, s.tx, func(st *store.State) ([]*models.AuditLog, error) {
		out := make([]*models.AuditLog, 0, auditPageSize)
		for i := len(st.AuditLogs) - 1; i >= 0 && len(out) < auditPageSize; i-- {
			entry := st.AuditLogs[i]
			if entry.TenantID == nil || *entry.TenantID == actor.TenantID {
				out = append(out, entry)
			}
		}
		return out, nil
	})
}
