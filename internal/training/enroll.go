package training

import (
	"phishsim/internal/dedupe"
	"phishsim/internal/models"
	"phishsim/internal/store"
)

// Enrollment is the outcome of Enroll.
type Enrollment struct {
	Session        *models.TrainingSession
	SessionCreated bool
	StartedEvent   *models.RecipientEvent
	StartedCreated bool
}

// Enroll gets or creates the recipient's single training session and
// records its training_started event, keyed by the session so repeat calls
// are no-ops. source is stored in the event metadata.
func Enroll(st *store.State, r *models.CampaignRecipient, moduleID, source string) Enrollment {
	session, created := st.GetOrCreateTrainingSession(r, moduleID)
	ev, evCreated := st.InsertEventIfAbsent(store.NewEvent{
		Recipient: r,
		Key:       dedupe.New(r.ID, dedupe.EventTrainingStarted, dedupe.TrainingSession(session.ID)),
		Metadata:  map[string]any{"source": source},
	})
	return Enrollment{
		Session:        session,
		SessionCreated: created,
		StartedEvent:   ev,
		StartedCreated: evCreated,
	}
}
