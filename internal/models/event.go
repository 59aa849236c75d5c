package models

import (
	"time"

	"phishsim/internal/dedupe"
	id "phishsim/pkg/domain"
)

// RecipientEvent is an append-only interaction record. DedupeKey is unique
// across all events.
type RecipientEvent struct {
	ID          id.EventID       `json:"id"`
	TenantID    id.TenantID      `json:"tenantId"`
	RecipientID id.RecipientID   `json:"campaignRecipientId"`
	Type        dedupe.EventType `json:"eventType"`
	DedupeKey   dedupe.Key       `json:"dedupeKey"`
	DataClass   DataClass        `json:"dataClass"`
	Metadata    map[string]any   `json:"metadata"`
	OccurredAt  time.Time        `json:"occurredAt"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// CredentialMetadata is all that is kept of a simulated credential
// submission. The password itself is reduced to whether one was typed.
func CredentialMetadata(username, password string) map[string]any {
	var user any
	if username != "" {
		user = username
	}
	return map[string]any{
		"username":         user,
		"hasPasswordInput": password != "",
	}
}

// ProcessedWebhook records a provider delivery by (Provider, EventID).
type ProcessedWebhook struct {
	ID          id.WebhookID `json:"id"`
	Provider    string       `json:"provider"`
	EventID     string       `json:"eventId"`
	MessageID   string       `json:"messageId"`
	ProcessedAt time.Time    `json:"processedAt"`
}
