// Package email delivers simulation emails through a pluggable provider.
package email

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message is one simulation email addressed to one campaign recipient.
type Message struct {
	TenantID      string
	CampaignID    string
	CampaignName  string
	RecipientID   string
	ToEmail       string
	ToName        string
	FromDomain    string
	TemplateName  string
	TrackingToken string
	DataClass     string
}

// Receipt is the provider's acknowledgement of an accepted message.
type Receipt struct {
	Provider   string
	MessageID  string
	AcceptedAt time.Time
}

// Sender hands one message to an email provider. A returned error means the
// provider did not accept the message.
type Sender interface {
	SendSimulationEmail(ctx context.Context, msg Message) (Receipt, error)
}

// ErrMissingRecipient is returned for a message without a destination.
var ErrMissingRecipient = errors.New("email: message has no recipient address")

const ProviderMock = "mock"

// LoopbackSender accepts every message without delivering it. Message ids
// have the form mock-<uuid>.
type LoopbackSender struct {
	now func() time.Time
}

func NewLoopbackSender() *LoopbackSender {
	return &LoopbackSender{now: time.Now}
}

func (s *LoopbackSender) SendSimulationEmail(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if msg.ToEmail == "" {
		return Receipt{}, ErrMissingRecipient
	}
	return Receipt{
		Provider:   ProviderMock,
		MessageID:  "mock-" + uuid.NewString(),
		AcceptedAt: s.now().UTC(),
	}, nil
}
