// Package dedupe defines the identity of a logical recipient event.
//
// A Key is the tuple (recipient, event type, source). Two events with equal
// keys describe the same occurrence and only the first is stored. The text
// form recipientId:eventType:sourceId is what gets persisted and indexed:
//
//	<recipient>:click:manual
//	<recipient>:training_started:<session>
//	<recipient>:open:provider:<messageId>
package dedupe

import (
	"fmt"
	"strings"

	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

// EventType enumerates recipient interaction kinds.
type EventType string

const (
	EventDelivered         EventType = "delivered"
	EventOpen              EventType = "open"
	EventClick             EventType = "click"
	EventCredentialSubmit  EventType = "credential_submit_simulated"
	EventReported          EventType = "reported"
	EventTrainingStarted   EventType = "training_started"
	EventTrainingCompleted EventType = "training_completed"
)

var eventTypes = map[EventType]struct{}{
	EventDelivered:         {},
	EventOpen:              {},
	EventClick:             {},
	EventCredentialSubmit:  {},
	EventReported:          {},
	EventTrainingStarted:   {},
	EventTrainingCompleted: {},
}

func (t EventType) IsValid() bool {
	_, ok := eventTypes[t]
	return ok
}

// IsProviderType reports whether t can arrive through the provider webhook.
func (t EventType) IsProviderType() bool {
	return t == EventDelivered || t == EventOpen || t == EventClick
}

// SourceKind says where an occurrence originated.
type SourceKind string

const (
	SourceManual          SourceKind = "manual"
	SourceTrainingSession SourceKind = "training_session"
	SourceProviderMessage SourceKind = "provider_message"
)

const (
	manualSourceID = "manual"
	providerPrefix = "provider:"
)

// Source identifies the origin of an occurrence. ID is empty for manual
// sources, a session id for training sources and the provider message id for
// provider sources.
type Source struct {
	Kind SourceKind
	ID   string
}

func Manual() Source {
	return Source{Kind: SourceManual}
}

func TrainingSession(sessionID id.TrainingSessionID) Source {
	return Source{Kind: SourceTrainingSession, ID: sessionID.String()}
}

func ProviderMessage(messageID string) Source {
	return Source{Kind: SourceProviderMessage, ID: messageID}
}

func (s Source) text() string {
	switch s.Kind {
	case SourceManual:
		return manualSourceID
	case SourceProviderMessage:
		return providerPrefix + s.ID
	default:
		return s.ID
	}
}

// Key is the composite identity of a recipient event.
type Key struct {
	RecipientID id.RecipientID
	EventType   EventType
	Source      Source
}

func New(recipientID id.RecipientID, eventType EventType, source Source) Key {
	return Key{RecipientID: recipientID, EventType: eventType, Source: source}
}

// String renders the canonical recipientId:eventType:sourceId form.
func (k Key) String() string {
	return k.RecipientID.String() + ":" + string(k.EventType) + ":" + k.Source.text()
}

// Validate checks that every component is present and well formed.
func (k Key) Validate() error {
	if k.RecipientID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "dedupe key requires a recipient")
	}
	if !k.EventType.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unknown event type %q", k.EventType))
	}
	switch k.Source.Kind {
	case SourceManual:
		if k.Source.ID != "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "manual source carries no id")
		}
	case SourceTrainingSession:
		if _, err := id.ParseTrainingSessionID(k.Source.ID); err != nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "training source requires a session id")
		}
	case SourceProviderMessage:
		if k.Source.ID == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "provider source requires a message id")
		}
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unknown source kind %q", k.Source.Kind))
	}
	return nil
}

func (k Key) MarshalText() ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey is the inverse of Key.String. Provider message ids may themselves
// contain colons; everything after "provider:" is the message id.
func ParseKey(raw string) (Key, error) {
	recipientRaw, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Key{}, dErrors.New(dErrors.CodeInvalidInput, "dedupe key must have three parts")
	}
	typeRaw, sourceRaw, ok := strings.Cut(rest, ":")
	if !ok || sourceRaw == "" {
		return Key{}, dErrors.New(dErrors.CodeInvalidInput, "dedupe key must have three parts")
	}
	recipientID, err := id.ParseRecipientID(recipientRaw)
	if err != nil {
		return Key{}, err
	}

	var source Source
	switch {
	case sourceRaw == manualSourceID:
		source = Manual()
	case strings.HasPrefix(sourceRaw, providerPrefix):
		source = ProviderMessage(strings.TrimPrefix(sourceRaw, providerPrefix))
	default:
		source = Source{Kind: SourceTrainingSession, ID: sourceRaw}
	}

	k := Key{RecipientID: recipientID, EventType: EventType(typeRaw), Source: source}
	if err := k.Validate(); err != nil {
		return Key{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid dedupe key")
	}
	return k, nil
}
