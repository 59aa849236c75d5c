// Package domain holds typed identifiers shared across bounded contexts.
//
// Every identifier is a distinct named UUID type so a CampaignID can never be
// passed where a TenantID is expected. Parse functions are the trust boundary
// for identifiers arriving from URLs and payloads: they reject empty, malformed
// and nil UUIDs with CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "phishsim/pkg/domain-errors"
)

type (
	TenantID          uuid.UUID
	AdminID           uuid.UUID
	TargetDomainID    uuid.UUID
	SendingDomainID   uuid.UUID
	EmployeeID        uuid.UUID
	CampaignID        uuid.UUID
	RecipientID       uuid.UUID
	EventID           uuid.UUID
	TrainingSessionID uuid.UUID
	QuizAttemptID     uuid.UUID
	WebhookID         uuid.UUID
	ViolationID       uuid.UUID
	ControlID         uuid.UUID
	AuditLogID        uuid.UUID
	DispatchID        uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	return TenantID(u), err
}

func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin id")
	return AdminID(u), err
}

func ParseTargetDomainID(s string) (TargetDomainID, error) {
	u, err := parseUUID(s, "target domain id")
	return TargetDomainID(u), err
}

func ParseSendingDomainID(s string) (SendingDomainID, error) {
	u, err := parseUUID(s, "sending domain id")
	return SendingDomainID(u), err
}

func ParseEmployeeID(s string) (EmployeeID, error) {
	u, err := parseUUID(s, "employee id")
	return EmployeeID(u), err
}

func ParseCampaignID(s string) (CampaignID, error) {
	u, err := parseUUID(s, "campaign id")
	return CampaignID(u), err
}

func ParseRecipientID(s string) (RecipientID, error) {
	u, err := parseUUID(s, "recipient id")
	return RecipientID(u), err
}

func ParseTrainingSessionID(s string) (TrainingSessionID, error) {
	u, err := parseUUID(s, "training session id")
	return TrainingSessionID(u), err
}

func ParseViolationID(s string) (ViolationID, error) {
	u, err := parseUUID(s, "policy violation id")
	return ViolationID(u), err
}

// String, MarshalText and UnmarshalText make each ID usable in logs, JSON
// bodies and as JSON object keys in persisted snapshots.

func (id TenantID) String() string                   { return uuid.UUID(id).String() }
func (id TenantID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *TenantID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id AdminID) String() string                   { return uuid.UUID(id).String() }
func (id AdminID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *AdminID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id TargetDomainID) String() string               { return uuid.UUID(id).String() }
func (id TargetDomainID) IsNil() bool                  { return uuid.UUID(id) == uuid.Nil }
func (id TargetDomainID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *TargetDomainID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id SendingDomainID) String() string               { return uuid.UUID(id).String() }
func (id SendingDomainID) IsNil() bool                  { return uuid.UUID(id) == uuid.Nil }
func (id SendingDomainID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *SendingDomainID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id EmployeeID) String() string                   { return uuid.UUID(id).String() }
func (id EmployeeID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id EmployeeID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *EmployeeID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id CampaignID) String() string                   { return uuid.UUID(id).String() }
func (id CampaignID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id CampaignID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *CampaignID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id RecipientID) String() string                   { return uuid.UUID(id).String() }
func (id RecipientID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id RecipientID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *RecipientID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id EventID) String() string                   { return uuid.UUID(id).String() }
func (id EventID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *EventID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id TrainingSessionID) String() string               { return uuid.UUID(id).String() }
func (id TrainingSessionID) IsNil() bool                  { return uuid.UUID(id) == uuid.Nil }
func (id TrainingSessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *TrainingSessionID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id QuizAttemptID) String() string               { return uuid.UUID(id).String() }
func (id QuizAttemptID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *QuizAttemptID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id WebhookID) String() string                   { return uuid.UUID(id).String() }
func (id WebhookID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *WebhookID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id ViolationID) String() string                   { return uuid.UUID(id).String() }
func (id ViolationID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id ViolationID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *ViolationID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id ControlID) String() string                   { return uuid.UUID(id).String() }
func (id ControlID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *ControlID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id AuditLogID) String() string                   { return uuid.UUID(id).String() }
func (id AuditLogID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *AuditLogID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

func (id DispatchID) String() string                   { return uuid.UUID(id).String() }
func (id DispatchID) IsNil() bool                      { return uuid.UUID(id) == uuid.Nil }
func (id DispatchID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id *DispatchID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }
