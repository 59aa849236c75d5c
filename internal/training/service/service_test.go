package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/store"
	"phishsim/internal/store/storetest"
	"phishsim/internal/training"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.Store
	service   *Service
	recipient *models.CampaignRecipient
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storetest.New(s.T())
	s.service = New(s.store, training.DefaultCatalog())

	tn := storetest.SeedTenant(s.T(), s.store, "acme")
	emps := storetest.SeedEmployees(s.T(), s.store, tn, 1)
	c := storetest.SeedCampaign(s.T(), s.store, tn, models.CampaignCompleted)
	s.recipient = storetest.SeedSentRecipients(s.T(), s.store, c, emps)[0]
}

func (s *ServiceSuite) eventsOf(eventType dedupe.EventType) []*models.RecipientEvent {
	var out []*models.RecipientEvent
	s.Require().NoError(s.store.Read(s.ctx, func(st *store.State) error {
		for _, ev := range st.RecipientEvents(s.recipient.ID) {
			if ev.Type == eventType {
				out = append(out, ev)
			}
		}
		return nil
	}))
	return out
}

func (s *ServiceSuite) TestStartIsIdempotent() {
	first, err := s.service.Start(s.ctx, s.recipient.TrackingToken)
	s.Require().NoError(err)
	second, err := s.service.Start(s.ctx, s.recipient.TrackingToken)
	s.Require().NoError(err)

	s.Equal(first.SessionID, second.SessionID)
	s.Equal(models.DefaultTrainingModuleID, first.Module.ID)
	s.Len(first.Quiz, 2)
	s.Len(s.eventsOf(dedupe.EventTrainingStarted), 1)
	s.Equal("training_start_api", s.eventsOf(dedupe.EventTrainingStarted)[0].Metadata["source"])
}

func (s *ServiceSuite) TestStartUnknownToken() {
	_, err := s.service.Start(s.ctx, "no-such-token-value")
	s.True(dErrors.HasReason(err, "TRACKING_TOKEN_NOT_FOUND"))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCompleteAutoGrades() {
	tests := []struct {
		name    string
		answers []int
		score   int
		passed  bool
	}{
		{name: "all correct", answers: []int{0, 1}, score: 100, passed: true},
		{name: "half correct", answers: []int{0, 0}, score: 50, passed: false},
		{name: "no answers", answers: nil, score: 100, passed: true},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			started, err := s.service.Start(s.ctx, s.recipient.TrackingToken)
			s.Require().NoError(err)

			res, err := s.service.Complete(s.ctx, started.SessionID, CompleteInput{Answers: tt.answers})
			s.Require().NoError(err)
			s.Equal(tt.score, res.Score)
			s.Equal(tt.passed, res.Passed)
		})
	}
}

func (s *ServiceSuite) TestCompleteScoreOverride() {
	started, err := s.service.Start(s.ctx, s.recipient.TrackingToken)
	s.Require().NoError(err)

	score := 69
	res, err := s.service.Complete(s.ctx, started.SessionID, CompleteInput{Answers: []int{0, 1}, Score: &score})
	s.Require().NoError(err)
	s.Equal(69, res.Score)
	s.False(res.Passed)
}

func (s *ServiceSuite) TestRepeatCompletionReturnsStoredAttempt() {
	started, err := s.service.Start(s.ctx, s.recipient.TrackingToken)
	s.Require().NoError(err)

	first, err := s.service.Complete(s.ctx, started.SessionID, CompleteInput{Answers: []int{0, 1}})
	s.Require().NoError(err)
	low := 10
	second, err := s.service.Complete(s.ctx, started.SessionID, CompleteInput{Score: &low})
	s.Require().NoError(err)

	s.Equal(first.Score, second.Score)
	s.Equal(first.Passed, second.Passed)
	s.True(first.CompletedAt.Equal(second.CompletedAt))

	completed := s.eventsOf(dedupe.EventTrainingCompleted)
	s.Require().Len(completed, 1)
	s.Equal(100, completed[0].Metadata["score"])
	s.Equal(true, completed[0].Metadata["passed"])

	s.Require().NoError(s.store.Read(s.ctx, func(st *store.State) error {
		s.Len(st.QuizAttempts, 1)
		return nil
	}))
}

func (s *ServiceSuite) TestCompleteMissingSession() {
	_, err := s.service.Complete(s.ctx, id.TrainingSessionID(uuid.New()), CompleteInput{})
	s.True(dErrors.HasReason(err, "TRAINING_SESSION_NOT_FOUND"))
}

func (s *ServiceSuite) TestCompleteMissingRecipient() {
	started, err := s.service.Start(s.ctx, s.recipient.TrackingToken)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Write(s.ctx, func(st *store.State) error {
		delete(st.Recipients, s.recipient.ID)
		return nil
	}))

	_, err = s.service.Complete(s.ctx, started.SessionID, CompleteInput{})
	s.True(dErrors.HasReason(err, "RECIPIENT_NOT_FOUND"))
}

func (s *ServiceSuite) TestCompleteRejectsOutOfRangeScore() {
	score := 101
	_, err := s.service.Complete(s.ctx, id.TrainingSessionID(uuid.New()), CompleteInput{Score: &score})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
