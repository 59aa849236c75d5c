package store

import (
	"fmt"
	"time"

	"phishsim/internal/models"
)

// CurrentVersion is the document schema version this binary writes.
const CurrentVersion = 4

type migration struct {
	version int
	name    string
	apply   func(s *State)
}

// migrations run in order, once, when a document older than CurrentVersion
// is opened. Each step must be idempotent.
var migrations = []migration{
	{
		version: 1,
		name:    "baseline tables",
		apply:   func(s *State) { s.ensureTables() },
	},
	{
		version: 2,
		name:    "campaign training module",
		apply: func(s *State) {
			for _, c := range s.Campaigns {
				if c.TrainingModuleID == "" {
					c.TrainingModuleID = models.DefaultTrainingModuleID
				}
			}
		},
	},
	{
		version: 3,
		name:    "training session module",
		apply: func(s *State) {
			for _, sess := range s.TrainingSessions {
				if sess.ModuleID != "" {
					continue
				}
				sess.ModuleID = models.DefaultTrainingModuleID
				if r, ok := s.Recipients[sess.RecipientID]; ok {
					if c, ok := s.Campaigns[r.CampaignID]; ok && c.TrainingModuleID != "" {
						sess.ModuleID = c.TrainingModuleID
					}
				}
			}
		},
	},
	{
		version: 4,
		name:    "entity updated timestamps",
		apply: func(s *State) {
			for _, t := range s.Tenants {
				if t.UpdatedAt.IsZero() {
					t.UpdatedAt = t.CreatedAt
				}
			}
			for _, c := range s.Campaigns {
				if c.UpdatedAt.IsZero() {
					c.UpdatedAt = c.CreatedAt
				}
			}
		},
	},
}

// migrate upgrades s in place and returns the names of the applied steps.
func migrate(s *State) ([]string, error) {
	if s.Version > CurrentVersion {
		return nil, fmt.Errorf("state document version %d is newer than supported version %d", s.Version, CurrentVersion)
	}
	var applied []string
	for _, m := range migrations {
		if m.version <= s.Version {
			continue
		}
		m.apply(s)
		s.Version = m.version
		applied = append(applied, m.name)
	}
	return applied, nil
}

// recoverInterrupted releases dispatch reservations left behind by a process
// that stopped between the reserve and record phases.
func recoverInterrupted(s *State, now time.Time) int {
	released := 0
	for _, c := range s.Campaigns {
		if c.ReleaseStaleDispatch(now) {
			released++
		}
	}
	return released
}
