package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/platform/logger"
	"phishsim/internal/platform/tracing"
	"phishsim/internal/store"
	"phishsim/internal/transport/email"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/sentinel"
	"phishsim/pkg/requestcontext"
)

// SampleRecipient is one entry of the bounded dispatch sample.
type SampleRecipient struct {
	RecipientID         id.RecipientID    `json:"recipientId"`
	MessageID           string            `json:"messageId"`
	Email               string            `json:"email"`
	TrackingToken       string            `json:"trackingToken"`
	Status              models.SendStatus `json:"status"`
	ClickURL            string            `json:"clickUrl"`
	ReportURL           string            `json:"reportUrl"`
	CredentialSubmitURL string            `json:"credentialSubmitUrl"`
}

type DispatchResult struct {
	Campaign         *models.Campaign  `json:"campaign"`
	Attempted        int               `json:"attempted"`
	Sent             int               `json:"sent"`
	Failed           int               `json:"failed"`
	SampleRecipients []SampleRecipient `json:"sampleRecipients"`
}

// reservation is what the first phase hands to the send phase. It holds
// copies only; committed state is never touched outside a transaction.
type reservation struct {
	dispatchID id.DispatchID
	tenantID   id.TenantID
	campaignID id.CampaignID
	messages   []email.Message
	recipients []id.RecipientID
}

type outcome struct {
	receipt email.Receipt
	err     error
}

// Dispatch sends a campaign in three steps. The first transaction checks
// every guard, reserves the campaign and materializes one recipient per
// employee. Provider calls then run outside the store lock with bounded
// concurrency. A second transaction records each outcome and releases the
// reservation. force bypasses the pause and status guards but never the
// tenant restriction.
func (s *Service) Dispatch(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, force bool) (_ *DispatchResult, err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "campaign.dispatch",
		"campaign_id", campaignID.String(),
		"tenant_id", actor.TenantID.String(),
	)
	defer func() { tracing.End(span, err) }()

	if err := s.flushUnrecorded(ctx, campaignID); err != nil {
		return nil, err
	}

	res, err := s.reserve(ctx, actor, campaignID, force)
	if err != nil {
		return nil, err
	}

	// Sends must finish and be recorded even if the caller goes away.
	outcomes := s.send(context.WithoutCancel(ctx), res)

	result, err := s.recordWithRetry(context.WithoutCancel(ctx), actor, res, outcomes, force)
	if err != nil {
		// Accepted sends are held until a later dispatch of this campaign
		// can record them; the reservation stays until then.
		s.holdUnrecorded(&unrecordedDispatch{actor: actor, res: res, outcomes: outcomes, force: force})
		s.logger.ErrorContext(ctx, "failed to record dispatch outcomes",
			"campaign_id", campaignID.String(),
			"dispatch_id", res.dispatchID.String(),
			"error", err,
		)
		return nil, err
	}

	s.metrics.ObserveDispatch(result.Sent, result.Failed, start)
	s.logger.InfoContext(ctx, "campaign dispatched",
		"tenant_id", actor.TenantID.String(),
		"campaign_id", campaignID.String(),
		"attempted", result.Attempted,
		"sent", result.Sent,
		"failed", result.Failed,
		"forced", force,
	)
	return result, nil
}

func (s *Service) reserve(ctx context.Context, actor requestcontext.ActorInfo, campaignID id.CampaignID, force bool) (*reservation, error) {
	ctx, span := tracing.Start(ctx, "campaign.dispatch.reserve")
	res, err := store.Update(ctx, s.tx, func(st *store.State) (*reservation, error) {
		tenant, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		c, err := tenantCampaign(st, tenant.ID, campaignID)
		if err != nil {
			return nil, err
		}
		if tenant.IsRestricted() {
			return nil, models.RestrictedError()
		}
		if !force {
			if err := pauseState(st, tenant, c).Err(); err != nil {
				return nil, err
			}
		}
		if err := c.CanDispatch(force); err != nil {
			return nil, err
		}
		domain, err := sendingDomainFor(st, c)
		if err != nil {
			return nil, err
		}
		employees := st.TenantEmployees(tenant.ID)
		if len(employees) == 0 {
			return nil, dErrors.New(dErrors.CodeConflict, "no employees found for dispatch").WithReason("NO_EMPLOYEES")
		}
		if err := c.CanReserveDispatch(); err != nil {
			return nil, err
		}

		now := st.Now()
		dispatchID := id.DispatchID(st.NewID())
		c.ApplyDispatchStart(dispatchID, now)

		res := &reservation{dispatchID: dispatchID, tenantID: tenant.ID, campaignID: c.ID}
		for _, e := range employees {
			r, ok := st.RecipientFor(c.ID, e.ID)
			if !ok {
				r = models.NewRecipient(id.RecipientID(st.NewID()), c, e, now)
				st.PutRecipient(r)
			}
			if !r.NeedsSend() {
				continue
			}
			res.recipients = append(res.recipients, r.ID)
			res.messages = append(res.messages, email.Message{
				TenantID:      tenant.ID.String(),
				CampaignID:    c.ID.String(),
				CampaignName:  c.Name,
				RecipientID:   r.ID.String(),
				ToEmail:       r.Email,
				ToName:        r.FullName,
				FromDomain:    domain.Domain,
				TemplateName:  c.TemplateName,
				TrackingToken: r.TrackingToken,
				DataClass:     string(r.DataClass),
			})
		}
		return res, nil
	})
	tracing.End(span, err)
	return res, err
}

// send calls the provider once per reserved recipient. Failures are
// captured per recipient and never abort the batch.
func (s *Service) send(ctx context.Context, res *reservation) []outcome {
	ctx, span := tracing.Start(ctx, "campaign.dispatch.send")
	defer span.End()

	outcomes := make([]outcome, len(res.messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, msg := range res.messages {
		g.Go(func() error {
			receipt, err := s.sender.SendSimulationEmail(gctx, msg)
			if err != nil {
				s.logger.WarnContext(ctx, "simulation email not accepted",
					"campaign_id", msg.CampaignID,
					"recipient_id", msg.RecipientID,
					"to", logger.RedactEmail(msg.ToEmail),
					"error", err,
				)
			}
			outcomes[i] = outcome{receipt: receipt, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// recordWithRetry retries the record transaction with doubling backoff while
// the store is unavailable. Other errors are returned at once.
func (s *Service) recordWithRetry(ctx context.Context, actor requestcontext.ActorInfo, res *reservation, outcomes []outcome, force bool) (*DispatchResult, error) {
	wait := s.recordBackoff
	var err error
	for attempt := 1; ; attempt++ {
		var result *DispatchResult
		result, err = s.record(ctx, actor, res, outcomes, force)
		if err == nil || !errors.Is(err, sentinel.ErrUnavailable) || attempt >= s.recordAttempts {
			return result, err
		}
		s.logger.WarnContext(ctx, "retrying dispatch record",
			"campaign_id", res.campaignID.String(),
			"attempt", attempt,
			"error", err,
		)
		time.Sleep(wait)
		wait *= 2
	}
}

// unrecordedDispatch is a finished send phase whose outcomes could not be
// committed. It lives in memory only; after a restart the reservation is
// released by store recovery and the recipients are sent again.
type unrecordedDispatch struct {
	actor    requestcontext.ActorInfo
	res      *reservation
	outcomes []outcome
	force    bool
}

func (s *Service) holdUnrecorded(u *unrecordedDispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unrecorded[u.res.campaignID] = u
}

// flushUnrecorded commits outcomes held from an earlier failed record so the
// campaign's reservation is released and accepted recipients are not sent
// twice.
func (s *Service) flushUnrecorded(ctx context.Context, campaignID id.CampaignID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.unrecorded[campaignID]
	if !ok {
		return nil
	}
	result, err := s.record(context.WithoutCancel(ctx), u.actor, u.res, u.outcomes, u.force)
	if errors.Is(err, sentinel.ErrUnavailable) {
		return err
	}
	delete(s.unrecorded, campaignID)
	if err != nil {
		s.logger.WarnContext(ctx, "dropped held dispatch outcomes",
			"campaign_id", campaignID.String(),
			"dispatch_id", u.res.dispatchID.String(),
			"error", err,
		)
		return nil
	}
	s.logger.InfoContext(ctx, "recorded held dispatch outcomes",
		"campaign_id", campaignID.String(),
		"dispatch_id", u.res.dispatchID.String(),
		"sent", result.Sent,
		"failed", result.Failed,
	)
	return nil
}

func (s *Service) record(ctx context.Context, actor requestcontext.ActorInfo, res *reservation, outcomes []outcome, force bool) (*DispatchResult, error) {
	ctx, span := tracing.Start(ctx, "campaign.dispatch.record")
	result, err := store.Update(ctx, s.tx, func(st *store.State) (*DispatchResult, error) {
		result := &DispatchResult{Attempted: len(res.recipients), SampleRecipients: []SampleRecipient{}}
		for i, rid := range res.recipients {
			r, ok := st.Recipients[rid]
			if !ok {
				continue
			}
			o := outcomes[i]
			if o.err == nil {
				r.MarkSent(o.receipt.MessageID, o.receipt.AcceptedAt.UTC())
				st.PutRecipient(r)
				result.Sent++
			} else {
				r.MarkFailed()
				result.Failed++
			}
			if len(result.SampleRecipients) < sampleSize {
				result.SampleRecipients = append(result.SampleRecipients, s.sample(r, o))
			}
		}

		c, ok := st.Campaigns[res.campaignID]
		if !ok {
			return nil, campaignNotFound()
		}
		c.ApplyDispatchFinish(res.dispatchID, st.Now())
		result.Campaign = c

		entry := audit.ByAdmin(res.tenantID, actor.AdminID, audit.ActionCampaignDispatch, audit.ResourceCampaign, c.ID.String())
		entry.Metadata = map[string]any{
			"attempted": result.Attempted,
			"sent":      result.Sent,
			"failed":    result.Failed,
			"forced":    force,
		}
		st.AppendAudit(entry)
		return result, nil
	})
	tracing.End(span, err)
	return result, err
}

func (s *Service) sample(r *models.CampaignRecipient, o outcome) SampleRecipient {
	return SampleRecipient{
		RecipientID:         r.ID,
		MessageID:           o.receipt.MessageID,
		Email:               r.Email,
		TrackingToken:       r.TrackingToken,
		Status:              r.SendStatus,
		ClickURL:            email.TrackingURL(s.baseURL, "/events/click", r.TrackingToken),
		ReportURL:           email.TrackingURL(s.baseURL, "/events/report-phish", r.TrackingToken),
		CredentialSubmitURL: email.TrackingURL(s.baseURL, "/events/credential-submit-simulated", r.TrackingToken),
	}
}
