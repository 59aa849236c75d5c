package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"phishsim/pkg/platform/circuit"
)

// ErrProviderUnavailable is returned without calling the provider while the
// breaker is open.
var ErrProviderUnavailable = errors.New("email: provider circuit open")

// BreakerSender stops calling a failing provider until its cooldown elapses,
// so a provider outage fails a large dispatch fast instead of timing out per
// recipient.
type BreakerSender struct {
	next    Sender
	breaker *circuit.Breaker
	logger  *slog.Logger
	now     func() time.Time
}

func NewBreakerSender(next Sender, breaker *circuit.Breaker, logger *slog.Logger) *BreakerSender {
	return &BreakerSender{next: next, breaker: breaker, logger: logger, now: time.Now}
}

func (s *BreakerSender) SendSimulationEmail(ctx context.Context, msg Message) (Receipt, error) {
	if !s.breaker.Allow(s.now()) {
		return Receipt{}, ErrProviderUnavailable
	}
	receipt, err := s.next.SendSimulationEmail(ctx, msg)
	if err != nil {
		if change := s.breaker.RecordFailure(s.now()); change.Opened {
			s.logger.WarnContext(ctx, "email provider circuit opened",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
		return Receipt{}, err
	}
	if change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "email provider circuit closed", "breaker", s.breaker.Name())
	}
	return receipt, nil
}
