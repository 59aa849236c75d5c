package models

import (
	"time"

	id "phishsim/pkg/domain"
)

// TrainingSession is at most one per recipient; CompletedAt is set once.
type TrainingSession struct {
	ID          id.TrainingSessionID `json:"id"`
	TenantID    id.TenantID          `json:"tenantId"`
	RecipientID id.RecipientID       `json:"campaignRecipientId"`
	ModuleID    string               `json:"moduleId"`
	StartedAt   time.Time            `json:"startedAt"`
	CompletedAt *time.Time           `json:"completedAt"`
	DataClass   DataClass            `json:"dataClass"`
}

func (s *TrainingSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// ApplyCompletion sets CompletedAt on first call only.
func (s *TrainingSession) ApplyCompletion(now time.Time) {
	if s.CompletedAt == nil {
		s.CompletedAt = &now
	}
}

// QuizAttempt is at most one per session.
type QuizAttempt struct {
	ID        id.QuizAttemptID     `json:"id"`
	TenantID  id.TenantID          `json:"tenantId"`
	SessionID id.TrainingSessionID `json:"trainingSessionId"`
	Score     int                  `json:"score"`
	Passed    bool                 `json:"passed"`
	Answers   []int                `json:"answers"`
	CreatedAt time.Time            `json:"createdAt"`
}
